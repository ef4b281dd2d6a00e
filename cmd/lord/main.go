// Command lord is a CLI utility for Lord Microstrain inertial/GNSS sensors:
// it configures the data streams each subsystem emits and tails the decoded
// telemetry with inter-arrival timing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/microstrain/internal/db"
	"github.com/banshee-data/microstrain/internal/lord"
	"github.com/banshee-data/microstrain/internal/mip"
	"github.com/banshee-data/microstrain/internal/monitoring"
	"github.com/banshee-data/microstrain/internal/serialmux"
	"github.com/banshee-data/microstrain/internal/timeutil"
)

var (
	baud       = flag.Int("baud", 115200, "Serial baud rate")
	dbPath     = flag.String("db", "", "Record read-mode arrival timing to this sqlite file")
	ackTimeout = flag.Duration("ack-timeout", 2*time.Second, "How long to wait for a command acknowledgment")
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] PORT COMMAND\n\nCommands:\n", os.Args[0])
	fmt.Fprint(out, `  test       print every decoded packet
  configure  apply the IMU and GNSS channel tables
  read       stream packets with inter-arrival timing
  list       list serial devices
  rate       print the IMU and GNSS base rates
  packet     send one hand-built compound configuration packet
  ekf        configure and enable the estimation filter stream

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 1 && args[0] == "list" {
		runList()
		return
	}
	if len(args) != 2 {
		flag.Usage()
		os.Exit(2)
	}
	portName, command := args[0], args[1]
	if command == "list" {
		runList()
		return
	}

	sess, err := lord.OpenPort(portName, serialmux.PortOptions{BaudRate: *baud})
	if err != nil {
		log.Fatalf("failed to open serial port: %v", err)
	}
	defer sess.Close()
	sess.SetAckTimeout(*ackTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the serial port
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sess.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("monitor terminated: %v", err)
		}
	}()

	var cmdErr error
	switch command {
	case "test":
		cmdErr = runTest(ctx, sess)
	case "configure":
		cmdErr = runConfigure(sess)
	case "read":
		cmdErr = runRead(ctx, sess, *dbPath)
	case "rate":
		cmdErr = runRate(sess)
	case "packet":
		cmdErr = runPacket(sess)
	case "ekf":
		cmdErr = runEKF(sess)
	default:
		log.Printf("unknown command %q", command)
		flag.Usage()
		os.Exit(2)
	}

	stop()
	wg.Wait()
	if cmdErr != nil {
		log.Fatalf("%s failed: %v", command, cmdErr)
	}
}

func runList() {
	ports, err := serialmux.ListPorts()
	if err != nil {
		log.Fatalf("failed to enumerate serial ports: %v", err)
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Println(p)
	}
}

func runTest(ctx context.Context, sess *lord.Session) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		pkt, ok := sess.PollPacket()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		log.Printf("%s", pkt)
	}
}

func runConfigure(sess *lord.Session) error {
	if err := sess.SetIMUFormat(lord.FunctionApply, imuChannels); err != nil {
		return fmt.Errorf("configure IMU format: %w", err)
	}
	log.Print("IMU configured")

	if err := sess.SetGNSSFormat(lord.FunctionApply, gnssChannels); err != nil {
		return fmt.Errorf("configure GNSS format: %w", err)
	}
	log.Print("GNSS configured")
	return nil
}

func runRead(ctx context.Context, sess *lord.Session, dbPath string) error {
	correlator := lord.NewCorrelator(timeutil.RealClock{})

	var recorder *db.Recorder
	if dbPath != "" {
		var err error
		recorder, err = db.NewRecorder(dbPath)
		if err != nil {
			return fmt.Errorf("open recorder: %w", err)
		}
		defer recorder.Close()
		log.Printf("recording run %s to %s", recorder.RunID(), dbPath)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		pkt, ok := sess.PollPacket()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		a := correlator.Observe(pkt)
		log.Printf("%4dms %s", a.Elapsed.Milliseconds(), pkt)
		if recorder != nil {
			if err := recorder.RecordArrival(a.Descriptor, a.Elapsed, a.First); err != nil {
				monitoring.Logf("failed to record arrival: %v", err)
			}
		}
	}
}

func runRate(sess *lord.Session) error {
	imuRate, err := sess.IMUBaseRate()
	if err != nil {
		return fmt.Errorf("query IMU base rate: %w", err)
	}
	gnssRate, err := sess.GNSSBaseRate()
	if err != nil {
		return fmt.Errorf("query GNSS base rate: %w", err)
	}
	fmt.Printf("IMU base rate: %d Hz\n", imuRate)
	fmt.Printf("GNSS base rate: %d Hz\n", gnssRate)
	return nil
}

func runPacket(sess *lord.Session) error {
	pkt, err := deviceSetupPacket()
	if err != nil {
		return err
	}
	b, err := pkt.Bytes()
	if err != nil {
		return err
	}
	log.Printf("sending % 02X", b)

	reply, err := sess.Send(pkt)
	if err != nil {
		return err
	}
	log.Printf("reply: %s", reply)
	return nil
}

func runEKF(sess *lord.Session) error {
	if err := sess.SetEstimationFormat(lord.FunctionApply, ekfChannels); err != nil {
		return fmt.Errorf("configure estimation format: %w", err)
	}
	if err := sess.SetGNSSFormat(lord.FunctionApply, ekfGNSSChannels); err != nil {
		return fmt.Errorf("configure GNSS format: %w", err)
	}

	// Enable filter auto-initialization and persist it, then the stream
	// itself comes up with the saved format.
	_, err := sess.Send(mip.NewPacket(mip.SetEFCommand,
		mip.NewField(mip.CmdEFControl, []byte{0x01, 0x01}),
		mip.NewField(mip.CmdEFControl, []byte{0x03, 0x01}),
	))
	if err != nil {
		return fmt.Errorf("enable estimation filter: %w", err)
	}
	return nil
}
