package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viewnav/go-camview/internal/config"
	"github.com/viewnav/go-camview/internal/log"
	"github.com/viewnav/go-camview/pkg/camera"
	"github.com/viewnav/go-camview/pkg/capture"
	"github.com/viewnav/go-camview/pkg/frames"
	"github.com/viewnav/go-camview/pkg/geom"
	"github.com/viewnav/go-camview/pkg/web"
)

func main() {
	port := flag.String("port", config.Port(), "HTTP listen port")
	tickRate := flag.Int("tick-rate", config.TickRate(), "Render ticks per second")
	transition := flag.Duration("transition", config.DefaultTransition(), "Default transition duration")
	withCamera := flag.Bool("camera", false, "Capture view frames from a local camera")
	cameraDevice := flag.Int("camera-device", config.CameraDevice(), "Capture device id")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)

	if *tickRate <= 0 {
		*tickRate = config.DefaultTickRate
	}
	tick := time.Second / time.Duration(*tickRate)

	// Resting view: above and behind the scene origin, z-up.
	engine := camera.NewEngine(geom.Pose{
		Eye:   geom.Vec3{X: 5, Y: 5, Z: 10},
		Focus: geom.Vec3{},
		Up:    geom.Vec3{Z: 1},
	})
	engine.SetDefaultTransition(*transition)

	var source capture.Source
	if *withCamera {
		webcam, err := capture.OpenWebcam(*cameraDevice)
		if err != nil {
			log.Error("camera unavailable, continuing without capture", "err", err)
		} else {
			source = webcam
			defer webcam.Close()
		}
	}

	server := web.NewServer(*port, engine, frames.NewRegistry(), source, tick)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nshutting down...")
		if err := server.Shutdown(); err != nil {
			log.Error("shutdown", "err", err)
		}
	}()

	log.Info("camview starting",
		"port", *port,
		"tick_rate", *tickRate,
		"transition", transition.String(),
		"capture", source != nil)

	if err := server.Start(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
