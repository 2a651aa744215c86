package redisbridge

import (
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/librescoot/snap-framing/pkg/snap"
)

// Default Redis keys, overridable via Bridge fields for anyone embedding
// more than one bridge against the same Redis instance.
const (
	KeyFrames    = "snap:rx"
	ListOutgoing = "snap:tx"
)

// SendFunc transmits a fully encapsulated frame's bytes, e.g.
// (*serial.Port).Write.
type SendFunc func(frameBytes []byte) error

// Bridge republishes decoded SNAP frames into Redis and turns Redis list
// entries back into outgoing frames, the way the teacher's Service ties
// pkg/usock to pkg/redis.
type Bridge struct {
	client *Client

	// Send transmits a fully encapsulated frame's bytes, e.g.
	// (*serial.Port).Write. WatchOutgoing requires it to be set before
	// the first command arrives; HandleFrame never calls it.
	Send SendFunc

	FramesKey       string
	OutgoingListKey string

	// OutgoingHeader is used as the template for frames built from
	// commands popped off OutgoingListKey; only NDB is overwritten, from
	// the command payload's length.
	OutgoingHeader snap.Header
	UserHash       snap.UserHash

	stopCh chan struct{}
}

// NewBridge builds a Bridge over an already-connected Client. Send may be
// left nil if the caller only intends to publish decoded frames and wire
// it in later via the Send field, once a transport is available.
func NewBridge(client *Client, send SendFunc) *Bridge {
	return &Bridge{
		client:          client,
		Send:            send,
		FramesKey:       KeyFrames,
		OutgoingListKey: ListOutgoing,
		stopCh:          make(chan struct{}),
	}
}

// Stop signals WatchOutgoing to return.
func (b *Bridge) Stop() { close(b.stopCh) }

// HandleFrame adapts serial.Handler's (status, bytes) signature for use as
// a transport callback.
func (b *Bridge) HandleFrame(status snap.Status, frameBytes []byte) {
	fields, err := decodeForPublish(frameBytes, b.UserHash)
	if err != nil {
		log.Printf("snap: dropping unpublishable frame (%v): %x", err, frameBytes)
		return
	}
	fields["status"] = status.String()

	if err := b.client.WriteAndPublishFields(b.FramesKey, fields); err != nil {
		log.Printf("snap: failed to publish frame to Redis: %v", err)
	}
}

func decodeForPublish(frameBytes []byte, userHash snap.UserHash) (map[string]string, error) {
	buf := make([]byte, len(frameBytes))
	copy(buf, frameBytes)

	var opts []snap.Option
	if userHash != nil {
		opts = append(opts, snap.WithUserHash(userHash))
	}
	f, err := snap.NewFrame(buf, opts...)
	if err != nil {
		return nil, err
	}
	for _, b := range frameBytes {
		f.Decode(b)
	}

	header, err := f.Header()
	if err != nil {
		return nil, err
	}

	fields := map[string]string{
		"dab": fmt.Sprintf("%d", header.DAB),
		"sab": fmt.Sprintf("%d", header.SAB),
		"pfb": fmt.Sprintf("%d", header.PFB),
		"ack": fmt.Sprintf("%d", header.ACK),
		"cmd": fmt.Sprintf("%t", header.CMD),
		"edm": fmt.Sprintf("%d", header.EDM),
		"raw": hex.EncodeToString(frameBytes),
	}
	if dest, err := f.DestAddress(); err == nil {
		fields["dest"] = fmt.Sprintf("0x%x", dest)
	}
	if src, err := f.SourceAddress(); err == nil {
		fields["source"] = fmt.Sprintf("0x%x", src)
	}
	if pf, err := f.ProtocolFlags(); err == nil {
		fields["protocol-flags"] = fmt.Sprintf("0x%x", pf)
	}
	if data, err := f.Data(); err == nil {
		fields["data"] = hex.EncodeToString(data)
	}
	if hash, err := f.Hash(); err == nil {
		fields["hash"] = fmt.Sprintf("0x%x", hash)
	}
	return fields, nil
}

// WatchOutgoing blocks on OutgoingListKey, treating each popped value as a
// hex-encoded payload to encapsulate against OutgoingHeader and hand to
// SendFunc. After Stop is called it returns once the pending BRPOP, which
// has no timeout, comes back with a value or an error.
func (b *Bridge) WatchOutgoing() {
	log.Printf("Starting SNAP command watcher on list key: %s", b.OutgoingListKey)
	for {
		select {
		case <-b.stopCh:
			log.Println("Stopping SNAP command watcher.")
			return
		default:
			result, err := b.client.BRPop(0*time.Second, b.OutgoingListKey)
			if err != nil {
				log.Printf("Error receiving frame request from %s: %v", b.OutgoingListKey, err)
				time.Sleep(time.Second)
				continue
			}
			if result == nil {
				continue
			}
			if err := b.sendOne(result[1]); err != nil {
				log.Printf("Failed to send frame for payload %q: %v", result[1], err)
			}
		}
	}
}

func (b *Bridge) sendOne(hexPayload string) error {
	data, err := hex.DecodeString(hexPayload)
	if err != nil {
		return fmt.Errorf("invalid hex payload: %v", err)
	}

	var opts []snap.Option
	if b.UserHash != nil {
		opts = append(opts, snap.WithUserHash(b.UserHash))
	}
	f, err := snap.NewFrame(make([]byte, snap.MaxFrame), opts...)
	if err != nil {
		return err
	}

	if _, err := f.Encapsulate(snap.Fields{
		Header:       b.OutgoingHeader,
		Data:         data,
		PaddingAfter: true,
	}); err != nil {
		return fmt.Errorf("failed to encapsulate frame: %v", err)
	}

	return b.Send(f.Bytes())
}
