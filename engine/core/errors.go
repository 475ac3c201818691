package core

import (
	"errors"
)

var (
	// Startup-fatal: no adapter, memory type, surface format or depth format fits.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")
	// A GPU object creation call was rejected by the driver.
	ErrResourceCreation  = errors.New("resource creation failed")
	ErrOutOfDeviceMemory = errors.New("out of device memory")
	// Acquire or present reported an out-of-date or suboptimal surface.
	// Handled inside the frame loop, never returned from it.
	ErrStaleSurface = errors.New("surface out of date")
	// Input geometry breaks the triangulated-mesh assumption.
	ErrGeometryAssumption      = errors.New("geometry assumption violated")
	ErrLightCapacity           = errors.New("light capacity exceeded")
	ErrDescriptorPoolExhausted = errors.New("descriptor pool exhausted")
	ErrInvalidCache            = errors.New("invalid scene cache")
	ErrUnknown                 = errors.New("unknown")
)
