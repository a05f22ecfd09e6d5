// internal/dashboard/mjpeg.go
package dashboard

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"sync"
	"time"

	"github.com/tamzrod/uniform-watch/internal/logger"
)

const keepAliveFrame = 5 * time.Second

var (
	blankOnce sync.Once
	blank     []byte
)

// blankJPEG is shown while no camera frame is available.
func blankJPEG() []byte {
	blankOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 320, 240))
		grey := color.RGBA{R: 64, G: 64, B: 64, A: 255}
		for y := 0; y < 240; y++ {
			for x := 0; x < 320; x++ {
				img.Set(x, y, grey)
			}
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 60}); err != nil {
			logger.Error(logModule, "render blank frame: %v", err)
			return
		}
		blank = buf.Bytes()
	})
	return blank
}

// streamMJPEG relays frames to one client until ctx ends, stop closes or frameCh closes.
// first is written immediately; gaps longer than keepAliveFrame repeat the blank frame.
func streamMJPEG(ctx context.Context, stop <-chan struct{}, w http.ResponseWriter, first []byte, frameCh <-chan []byte) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	frame := first
	if frame == nil {
		frame = blankJPEG()
	}

	timer := time.NewTimer(keepAliveFrame)
	defer timer.Stop()

	for {
		if err := writeFrame(w, frame); err != nil {
			logger.Debug(logModule, "MJPEG client disconnected: %v", err)
			return
		}
		flusher.Flush()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(keepAliveFrame)

		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case data, ok := <-frameCh:
			if !ok {
				return
			}
			frame = data
		case <-timer.C:
			frame = blankJPEG()
		}
	}
}

func writeFrame(w http.ResponseWriter, data []byte) error {
	if _, err := w.Write([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}
