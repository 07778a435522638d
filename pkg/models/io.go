package models

import "github.com/google/uuid"

// IOConnector declares a single named input or output of a transformation.
// DataType is opaque to the registry; the execution engine interprets it.
type IOConnector struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"      validate:"required,min=1"`
	DataType string    `json:"data_type" validate:"required,min=1"`
}

// IOInterface declares the named inputs and outputs of a transformation
// revision.
type IOInterface struct {
	Inputs  []IOConnector `json:"inputs"`
	Outputs []IOConnector `json:"outputs"`
}

// Clone returns a deep copy of the interface.
func (io IOInterface) Clone() IOInterface {
	clone := IOInterface{}

	if io.Inputs != nil {
		clone.Inputs = make([]IOConnector, len(io.Inputs))
		copy(clone.Inputs, io.Inputs)
	}

	if io.Outputs != nil {
		clone.Outputs = make([]IOConnector, len(io.Outputs))
		copy(clone.Outputs, io.Outputs)
	}

	return clone
}
