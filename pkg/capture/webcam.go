package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Webcam grabs JPEG frames from a local video device via OpenCV.
type Webcam struct {
	device *gocv.VideoCapture
	mat    gocv.Mat
}

// OpenWebcam opens the capture device with the given id.
func OpenWebcam(deviceID int) (*Webcam, error) {
	device, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("open capture device %d: %w", deviceID, err)
	}
	return &Webcam{
		device: device,
		mat:    gocv.NewMat(),
	}, nil
}

// Grab reads one frame and returns it JPEG-encoded.
func (w *Webcam) Grab() ([]byte, error) {
	if ok := w.device.Read(&w.mat); !ok || w.mat.Empty() {
		return nil, fmt.Errorf("capture device returned no frame")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, w.mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close; copy out the bytes.
	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}

// Size returns the dimensions of the last grabbed frame.
func (w *Webcam) Size() (int, int) {
	return w.mat.Cols(), w.mat.Rows()
}

// Close releases the device and the frame buffer.
func (w *Webcam) Close() error {
	w.mat.Close()
	return w.device.Close()
}
