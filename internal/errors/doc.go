// Package errors provides structured, actionable messages for controlstore.
//
// Every message the module produces, from a rejected write on a controlled
// key to a malformed config file, is built from a registered code:
//   - A short message describing what happened
//   - A detailed explanation
//   - A severity (warning or error)
//   - A documentation URL
//
// # Categories
//
//   - runtime: store usage diagnostics (controlled writes, mode switches)
//   - config: controlstore.json problems
//   - persist: snapshot encoding and backend failures
//   - scenario: replay script problems
//   - cli: command line problems
//
// # Usage
//
//	err := errors.New("E141").
//	    WithDetail("No controlstore.json found in " + dir).
//	    WithSuggestion("Run 'controlstore serve --init' to write a default config")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E141: Config file not found
//	//
//	//   No controlstore.json found in /tmp/app
//	//
//	//   Hint: Run 'controlstore serve --init' to write a default config
//	//
//	//   Learn more: https://controlstore.dev/docs/errors/E141
package errors
