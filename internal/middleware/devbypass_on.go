//go:build devbypass

package middleware

const devBypassCompiled = true
