// Package mqtt provides MQTT client connectivity for the animatronics bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support, restored on reconnect
//   - Last Will and Testament (LWT) for bridge offline detection
//
// # Architecture
//
// The bus decouples the bridge from the animatronic firmware. Devices
// publish their own presence and responses; the bridge publishes commands:
//
//	Animatronics ↔ MQTT Broker ↔ Bridge ↔ Web clients
//
// Presence is derived purely from what the devices publish (their
// connect/disconnect status messages, typically backed by their own LWT)
// plus the bridge-side liveness timeout. The bridge has no heartbeat of its
// own to the devices.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllStatus(), 1,
//	    func(topic string, payload []byte) error {
//	        return tracker.HandleBusMessage(topic, payload)
//	    })
package mqtt
