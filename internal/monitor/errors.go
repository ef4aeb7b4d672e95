package monitor

import "errors"

// errNotModifiedWithoutSnapshot is reported when a server answers 304 to a
// request that carried no validators of ours.
var errNotModifiedWithoutSnapshot = errors.New("server answered not modified but no snapshot is stored")
