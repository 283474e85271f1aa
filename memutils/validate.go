package memutils

// Validatable is used by the DebugValidate method to allow it to act upon
// any type that can check its own internal consistency
type Validatable interface {
	Validate() error
}
