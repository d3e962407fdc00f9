// Package migrate repairs composite values saved with the retired ":"
// separator, rewriting "2:1001" as "2.1001". Only the first separator is
// replaced and only changed values are written back.
package migrate
