// director drives a camview server from the command line: it queries the
// current pose over REST, sends an orbiting trajectory down the control
// channel, and prints the pose stream until the animation settles.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/viewnav/go-camview/internal/httpc"
	"github.com/viewnav/go-camview/pkg/geom"
	"github.com/viewnav/go-camview/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:8090", "camview server host:port")
	radius := flag.Float64("radius", 10, "Orbit radius")
	height := flag.Float64("height", 5, "Orbit height above the focus point")
	steps := flag.Int("steps", 12, "Waypoints in the orbit")
	duration := flag.Float64("duration", 12, "Total orbit duration in seconds")
	fps := flag.Float64("fps", 0, "Render frame-by-frame at this rate (0 = wall clock)")
	style := flag.String("style", "wave", "Interpolation style: rising, declining, full, wave")
	flag.Parse()

	if *steps < 1 {
		fmt.Fprintln(os.Stderr, "steps must be at least 1")
		os.Exit(1)
	}

	if pose, err := fetchPose(*addr); err == nil {
		fmt.Printf("current pose: eye=(%.2f, %.2f, %.2f) animating=%v\n",
			pose.Eye.X, pose.Eye.Y, pose.Eye.Z, pose.Animating)
	} else {
		fmt.Fprintf(os.Stderr, "pose query failed: %v\n", err)
	}

	ctrl, _, err := websocket.DefaultDialer.Dial("ws://"+*addr+"/ws/control", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "control connect failed: %v\n", err)
		os.Exit(1)
	}
	defer ctrl.Close()

	poses, _, err := websocket.DefaultDialer.Dial("ws://"+*addr+"/ws/poses", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pose stream connect failed: %v\n", err)
		os.Exit(1)
	}
	defer poses.Close()

	msg, err := protocol.NewMessage(protocol.TypeTrajectory, orbit(*radius, *height, *steps, *duration, *fps, *style))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build trajectory: %v\n", err)
		os.Exit(1)
	}
	data, err := msg.Bytes()
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode trajectory: %v\n", err)
		os.Exit(1)
	}
	if err := ctrl.WriteMessage(websocket.TextMessage, data); err != nil {
		fmt.Fprintf(os.Stderr, "send trajectory: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("sent %d-waypoint orbit (%.1fs total)\n", *steps, *duration)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\ninterrupted")
		os.Exit(0)
	}()

	watchPoses(poses)
}

// orbit builds a circular flythrough around the origin.
func orbit(radius, height float64, steps int, duration, fps float64, style string) protocol.TrajectoryRequest {
	req := protocol.TrajectoryRequest{
		RenderFrameByFrame: fps > 0,
		FramesPerSecond:    fps,
	}

	segment := duration / float64(steps)
	for i := 1; i <= steps; i++ {
		angle := 2 * math.Pi * float64(i) / float64(steps)
		req.Trajectory = append(req.Trajectory, protocol.PlacementRequest{
			Eye: protocol.FramedPoint{Point: geom.Vec3{
				X: radius * math.Cos(angle),
				Y: radius * math.Sin(angle),
				Z: height,
			}},
			Focus:         protocol.FramedPoint{Point: geom.Vec3{}},
			Up:            protocol.FramedVector{Vector: geom.Vec3{Z: 1}},
			TimeFromStart: segment,
			Style:         style,
		})
	}
	return req
}

// watchPoses prints the pose stream and returns once the animation has
// started and then settled.
func watchPoses(conn *websocket.Conn) {
	started := false
	for {
		conn.SetReadDeadline(time.Now().Add(time.Minute))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			fmt.Fprintf(os.Stderr, "pose stream ended: %v\n", err)
			return
		}

		msg, err := protocol.ParseMessage(raw)
		if err != nil || msg.Type != protocol.TypePose {
			continue
		}
		update, err := msg.GetPoseUpdate()
		if err != nil {
			continue
		}

		fmt.Printf("eye=(%7.2f, %7.2f, %7.2f) focus=(%6.2f, %6.2f, %6.2f) animating=%v\n",
			update.Eye.X, update.Eye.Y, update.Eye.Z,
			update.Focus.X, update.Focus.Y, update.Focus.Z,
			update.Animating)

		if update.Animating {
			started = true
		} else if started {
			fmt.Println("orbit complete")
			return
		}
	}
}

// fetchPose queries the REST API for the current pose.
func fetchPose(addr string) (*protocol.PoseUpdate, error) {
	resp, err := httpc.Client.Get("http://" + addr + "/api/pose")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var pose protocol.PoseUpdate
	if err := json.NewDecoder(resp.Body).Decode(&pose); err != nil {
		return nil, err
	}
	return &pose, nil
}
