package fwsym

// ImportRequest asks a running server to import the symbols
// of the releases of OS selected by Version and Kinds.
type ImportRequest struct {
	ID      string `json:"id"`
	OS      string `json:"os"`
	Version string `json:"version"`
	Kinds   []Kind `json:"kinds,omitempty"`
}
