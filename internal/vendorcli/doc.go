// Package vendorcli wraps execution of vendor command-line tools (gh,
// vercel, turso, wrangler, aws) behind a small Runner interface so the
// service adapters can be exercised in tests with a fake runner instead of
// real subprocesses.
package vendorcli
