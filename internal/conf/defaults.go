// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "objectscan")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "data/objectscan.log")

	viper.SetDefault("input.path", "data/raw/telegram_images")
	viper.SetDefault("input.root", "telegram_images")

	viper.SetDefault("output.path", "data/processed")
	viper.SetDefault("output.detections", "data/processed/yolo_detections.jsonl")
	viper.SetDefault("output.ledger", "data/processed/processed_images.log")
	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "data/processed/detections.db")

	viper.SetDefault("detector.endpoint", "http://localhost:8000/detect")
	viper.SetDefault("detector.model", "yolov8n")
	viper.SetDefault("detector.confidence", 0.25)
	viper.SetDefault("detector.overlap", 0.70)
	viper.SetDefault("detector.timeout", 60)
	viper.SetDefault("detector.maxdimension", 1280)
}
