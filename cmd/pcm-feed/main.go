// ABOUTME: Test producer for the PCM relay
// ABOUTME: Streams a tone or audio file to the relay in real-time paced chunks
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/pcm-relay/internal/discovery"
	"github.com/Resonate-Protocol/pcm-relay/internal/source"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

var (
	serverAddr = flag.String("server", "", "Relay address host:port (default: discover via mDNS)")
	audioFile  = flag.String("file", "", "Audio file or HTTP MP3 URL (default: test tone)")
	loop       = flag.Bool("loop", false, "Loop the audio file")
	chunkMs    = flag.Int("chunk-ms", 100, "Chunk length in milliseconds")
	sampleRate = flag.Int("rate", 16000, "Relay sample rate")
	channels   = flag.Int("channels", 1, "Relay channel count")
	bitDepth   = flag.Int("bits", 16, "Relay bit depth (16 or 24)")
	toneHz     = flag.Float64("tone-hz", 440, "Test tone frequency")
	duration   = flag.Duration("duration", 0, "Stop after this long (0 = until the source ends)")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Fatalf("Feed error: %v", err)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Printf("Received %v signal, stopping feed...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if *duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, *duration)
		defer stop()
	}

	addr, err := resolveServer(ctx, *serverAddr)
	if err != nil {
		return err
	}

	format := audio.Format{
		Codec:      audio.CodecPCM,
		SampleRate: *sampleRate,
		Channels:   *channels,
		BitDepth:   *bitDepth,
	}

	src, err := source.Open(*audioFile, source.Options{
		Loop:          *loop,
		ToneFrequency: *toneHz,
		ToneRate:      *sampleRate,
		ToneChannels:  *channels,
	})
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	title, artist, _ := src.Metadata()
	log.Printf("Source: %s - %s (%dHz, %dch)", title, artist, src.SampleRate(), src.Channels())

	pump, err := source.NewPump(src, format, time.Duration(*chunkMs)*time.Millisecond)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("ws://%s/", addr)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer conn.Close()
	log.Printf("Connected to %s, sending %s in %dms chunks", url, format, *chunkMs)

	g, gctx := errgroup.WithContext(ctx)

	// The relay never sends data to a producer; reading surfaces its close frame.
	closed := make(chan struct{})
	g.Go(func() error {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				var ce *websocket.CloseError
				if errors.As(err, &ce) {
					if ce.Code == websocket.CloseNormalClosure {
						return nil
					}
					return fmt.Errorf("relay closed the connection: %d %s", ce.Code, ce.Text)
				}
				if gctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	})

	g.Go(func() error {
		var chunks, bytes int
		err := pump.Run(gctx, func(chunk []byte) error {
			chunks++
			bytes += len(chunk)
			return conn.WriteMessage(websocket.BinaryMessage, chunk)
		})
		log.Printf("Sent %d chunks (%d bytes, %v of audio)", chunks, bytes, format.Duration(bytes))

		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "feed finished")
		if werr := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); werr != nil {
			_ = conn.Close()
			return nil
		}
		select {
		case <-closed:
		case <-time.After(2 * time.Second):
			_ = conn.Close()
		}
		return nil
	})

	return g.Wait()
}

// resolveServer returns addr, or the first relay found on the LAN
func resolveServer(ctx context.Context, addr string) (string, error) {
	if addr != "" {
		return addr, nil
	}

	log.Printf("Discovering relays via mDNS...")
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	server, err := discovery.FindFirst(ctx)
	if err != nil {
		return "", err
	}
	log.Printf("Found relay: %s at %s", server.Name, server.Addr())
	return server.Addr(), nil
}
