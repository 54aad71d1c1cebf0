package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/swdee/vidtrack/server"
)

func main() {

	// read in cli flags
	httpAddr := flag.String("a", "localhost:8080", "HTTP Address to run server on, format address:port")
	logLevel := flag.String("log-level", "info", "Logging level [debug|info|warn|error]")
	stream := flag.Bool("stream", false, "Serve annotated frames as MJPEG at /stream")
	mqttBroker := flag.String("mqtt-broker", "", "MQTT broker to publish tracks to, eg: tcp://localhost:1883")
	mqttTopic := flag.String("mqtt-topic", "vidtrack/tracks", "MQTT topic to publish tracks on")

	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(*logLevel)

	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}

	logger.SetLevel(level)

	log := logrus.NewEntry(logger)

	srv := server.New(log, server.Options{
		Stream:     *stream,
		MQTTBroker: *mqttBroker,
		MQTTTopic:  *mqttTopic,
	})

	log.Infof("Start a run with http://%s/detect?input_path=video.mp4", *httpAddr)

	if *stream {
		log.Infof("View annotated frames at http://%s/stream", *httpAddr)
	}

	log.Fatal(http.ListenAndServe(*httpAddr, srv.Handler()))
}
