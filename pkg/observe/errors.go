package observe

import "errors"

// ErrNotObservable is returned by RegistrarOf when the value does not
// implement Observable. Types participate in observation by embedding
// Base or by implementing Registrar() themselves.
var ErrNotObservable = errors.New("observe: value does not implement Observable")
