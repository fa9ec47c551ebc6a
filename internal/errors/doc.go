// Package errors provides structured, actionable error messages for navintent.
//
// Errors carry a stable code, a category, a plain-language detail, an
// optional source location (for configuration files) and a hint on how to
// fix the problem.
//
// # Error Categories
//
//   - config: navintent.json could not be read, parsed or validated
//   - remote: configuration could not be fetched from object storage
//   - cli: bad command-line usage
//   - service: HTTP or websocket surface failures
//
// # Usage
//
//	err := errors.New("E122").
//	    WithLocation("navintent.json", 3, 14).
//	    WithSuggestion("Use a port between 1 and 65535")
//
//	fmt.Println(err.Format(false))
//	// ERROR E122: Invalid server port
//	//
//	//   navintent.json:3:14
//	//
//	//       2 │   "server": {
//	//   →   3 │     "port": 70000
//	//         │              ^
//	//       4 │   },
//	//
//	//   Hint: Use a port between 1 and 65535
package errors
