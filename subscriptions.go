package mqlite

// Subscriber is one (client, granted QoS) entry in a topic bucket.
type Subscriber struct {
	Client *ServerClient
	QoS    byte
}

// SubscriptionIndex maps exact topic names to their subscribers. It is
// owned by the broker event loop and must not be used concurrently: the
// index holds plain client references that the loop alone mutates, so
// no lock guards it.
//
// Within a topic, subscribers keep insertion order, which fixes the
// fan-out order for the broker's lifetime. A client appears at most
// once per topic, and a bucket whose last subscriber leaves is erased
// so the index never holds empty buckets.
type SubscriptionIndex struct {
	buckets map[string][]Subscriber
	total   int
}

// NewSubscriptionIndex creates an empty index.
func NewSubscriptionIndex() *SubscriptionIndex {
	return &SubscriptionIndex{
		buckets: make(map[string][]Subscriber),
	}
}

// Add subscribes client to topic at the given QoS. Returns true if the
// (topic, client) pair is new. Re-adding an existing pair only updates
// the granted QoS and keeps the original position.
func (x *SubscriptionIndex) Add(topic string, client *ServerClient, qos byte) bool {
	bucket := x.buckets[topic]
	for i := range bucket {
		if bucket[i].Client == client {
			bucket[i].QoS = qos
			return false
		}
	}

	x.buckets[topic] = append(bucket, Subscriber{Client: client, QoS: qos})
	x.total++
	return true
}

// Remove drops the (topic, client) pair. Returns whether it existed.
func (x *SubscriptionIndex) Remove(topic string, client *ServerClient) bool {
	bucket, ok := x.buckets[topic]
	if !ok {
		return false
	}

	for i := range bucket {
		if bucket[i].Client == client {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(x.buckets, topic)
			} else {
				x.buckets[topic] = bucket
			}
			x.total--
			return true
		}
	}

	return false
}

// RemoveAll sweeps every bucket for client and returns the number of
// subscriptions removed. Emptied buckets are erased.
func (x *SubscriptionIndex) RemoveAll(client *ServerClient) int {
	removed := 0
	for topic, bucket := range x.buckets {
		for i := range bucket {
			if bucket[i].Client == client {
				bucket = append(bucket[:i], bucket[i+1:]...)
				if len(bucket) == 0 {
					delete(x.buckets, topic)
				} else {
					x.buckets[topic] = bucket
				}
				removed++
				break
			}
		}
	}

	x.total -= removed
	return removed
}

// Subscribers returns the subscribers of topic in insertion order. The
// returned slice is the index's own backing array; callers must not
// mutate it and must not retain it across loop iterations.
func (x *SubscriptionIndex) Subscribers(topic string) []Subscriber {
	return x.buckets[topic]
}

// Total returns the number of (topic, client) pairs in the index.
func (x *SubscriptionIndex) Total() int {
	return x.total
}

// TopicCount returns the number of topics with at least one subscriber.
func (x *SubscriptionIndex) TopicCount() int {
	return len(x.buckets)
}
