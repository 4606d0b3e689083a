package shell

// LookPath exports lookPath for white-box tests.
var LookPath = lookPath
