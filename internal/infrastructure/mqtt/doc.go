// Package mqtt provides MQTT client connectivity for HomeSync Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Topic subscriptions with wildcard support, restored after reconnect
//   - Last Will and Testament (LWT) for offline detection
//   - Sensor topic construction and parsing
//
// # Topics
//
// Sensor readings are published by external producers on
//
//	{prefix}/{tenant}/sensor/{name}
//
// The prefix is configurable (default "tenant"); an empty prefix drops the
// segment entirely. Core subscribes once with SensorTopics.Wildcard and
// resolves each message with SensorTopics.Parse.
//
// # Ordering
//
// The client is built with paho's ordered delivery so handlers run one at a
// time in arrival order. Readings for a series are therefore appended in the
// order the broker delivered them.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := mqtt.NewSensorTopics(cfg.MQTT.TopicPrefix)
//	err = client.Subscribe(topics.Wildcard(), 1,
//	    func(topic string, payload []byte) error {
//	        tenant, sensor, ok := topics.Parse(topic)
//	        ...
//	    })
package mqtt
