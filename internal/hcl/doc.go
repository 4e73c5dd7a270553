// Package hcl provides the concrete HCL implementation of the configuration
// loading and value conversion interfaces defined in the `config` package.
//
// A build description is a set of `.hcl` files declaring models and projects:
//
//	model "someKey" {
//	  type   = list(string)
//	  value  = ["settings"]
//	  marker = "someKey realized"
//	}
//
//	project "a" {
//	  consume "someKey" {
//	    type   = list(string)
//	    times  = 2
//	    mutate = true
//	  }
//	}
//
// Model values stay unevaluated hcl.Expressions until the Converter is asked
// to evaluate them, which happens inside the model's work.
package hcl
