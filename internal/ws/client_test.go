package ws

import (
	"testing"

	"github.com/tms7331/centralized-poker/internal/service/game"
)

func TestReplyGoesThroughOutboundQueue(t *testing.T) {
	c := &client{outbound: make(chan game.OutgoingMessage, 1)}

	c.reply(game.OutgoingMessage{Type: "pong"})

	select {
	case msg := <-c.outbound:
		if msg.Type != "pong" {
			t.Fatalf("unexpected frame: %+v", msg)
		}
	default:
		t.Fatalf("reply did not reach the outbound queue")
	}
}

func TestReplyDropsWhenQueueFull(t *testing.T) {
	c := &client{outbound: make(chan game.OutgoingMessage, 1)}

	c.reply(game.OutgoingMessage{Type: "pong"})
	c.reply(game.OutgoingMessage{Type: "error"}) // must not block without a reader

	if got := len(c.outbound); got != 1 {
		t.Fatalf("expected 1 queued frame, got %d", got)
	}
}
