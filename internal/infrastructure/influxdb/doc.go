// Package influxdb exports HomeSync telemetry to InfluxDB v2.
//
// It wraps influxdb-client-go's non-blocking write API. Every stored sensor
// reading, every alert raise or clear, and each device's state after a
// mutation become points tagged by tenant:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteSensorReading("alice", "temperature", "°C", 21.5, time.Now())
//
// Export is optional. The in-memory store stays authoritative and a failed
// write never affects the originating operation.
package influxdb
