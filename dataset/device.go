package dataset

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Device selects where batch tensors are allocated.
type Device int

const (
	CPU Device = iota
	CUDA
)

func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	default:
		return fmt.Sprintf("Device(%d)", int(d))
	}
}

// DeviceFor mirrors the cuda on/off switch of a training configuration.
func DeviceFor(cuda bool) Device {
	if cuda {
		return CUDA
	}
	return CPU
}

// engine returns the tensor engine backing d. Only the standard CPU engine
// is linked into this build; CUDA memory is owned by gorgonia's cuda
// machine, which requires the cuda build tag.
func (d Device) engine() (tensor.Engine, error) {
	switch d {
	case CPU:
		return tensor.StdEng{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrDevice, d)
	}
}
