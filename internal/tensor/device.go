package tensor

// Device identifies where a view's data resides. It is opaque to this
// library: the only device policy here is tagging views and materializing
// copies onto a requested device via DeepClone.
type Device int

// Known compute devices.
const (
	CPU Device = iota
	CUDA
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}
