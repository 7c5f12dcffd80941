package bus

import (
	"sync"
	"testing"
	"time"
)

func TestPublishSubscribeDelivers(t *testing.T) {
	b := New()

	var mu sync.Mutex
	var got []interface{}

	b.Subscribe("sh.telemetry.traffic.v1", func(topic string, event interface{}) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, event)
	})

	b.Publish("sh.telemetry.traffic.v1", "event-1")
	b.Publish("sh.telemetry.traffic.v1", "event-2")

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 delivered events, got %d", n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPublishDifferentTopicNotDelivered(t *testing.T) {
	b := New()

	delivered := make(chan struct{}, 1)
	b.Subscribe("topic.a", func(topic string, event interface{}) {
		delivered <- struct{}{}
	})

	b.Publish("topic.b", "irrelevant")

	select {
	case <-delivered:
		t.Fatalf("handler for topic.a should not fire for topic.b")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandlerPanicDoesNotStallBus(t *testing.T) {
	b := New()

	b.Subscribe("sh.alerts.v1", func(topic string, event interface{}) {
		panic("boom")
	})

	second := make(chan struct{}, 1)
	b.Subscribe("sh.alerts.v1", func(topic string, event interface{}) {
		second <- struct{}{}
	})

	b.Publish("sh.alerts.v1", "x")

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatalf("second subscriber should still receive the event after first panics")
	}
}

func TestFullSubscriberBufferDropsWithoutBlocking(t *testing.T) {
	b := New()

	block := make(chan struct{})
	b.Subscribe("sh.telemetry.traffic.v1", func(topic string, event interface{}) {
		<-block
	})

	for i := 0; i < DefaultSubscriberBuffer+10; i++ {
		b.Publish("sh.telemetry.traffic.v1", i)
	}

	close(block)

	if b.PublishedCount() != uint64(DefaultSubscriberBuffer+10) {
		t.Errorf("expected %d published, got %d", DefaultSubscriberBuffer+10, b.PublishedCount())
	}
}
