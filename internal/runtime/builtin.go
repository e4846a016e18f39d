package runtime

import "time"

// RegisterBuiltins adds the native functions to the given environment.
// clock() returns the seconds elapsed since the interpreter started.
func RegisterBuiltins(env *Environment) {
	start := time.Now()

	env.Define("clock", &Builtin{
		Name:   "clock",
		Params: 0,
		Fn: func(args []Value) (Value, error) {
			return NumberVal(time.Since(start).Seconds()), nil
		},
	})
}
