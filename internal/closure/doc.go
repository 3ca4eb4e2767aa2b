// Package closure knows how to drive the Closure Compiler: its flags, the
// local jar, the hosted service, closurebuilder and depswriter. Everything it
// builds is a toolrun.Job; running them is toolrun's business.
package closure
