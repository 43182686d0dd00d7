// config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

var (
	Port           string
	MongoURI       string
	MongoDB        string
	JWTKey         []byte
	JWTExpiration  time.Duration
	ClientOrigin   string
	NotifySchedule string
	DueSoonDays    int
)

func LoadConfig() {
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "8080"
	}

	MongoURI = os.Getenv("MONGO_URI")
	if MongoURI == "" {
		MongoURI = "mongodb://localhost:27017"
	}

	MongoDB = os.Getenv("MONGO_DB")
	if MongoDB == "" {
		MongoDB = "assettrack"
	}

	JWTKey = []byte(os.Getenv("JWT_SECRET"))
	if len(JWTKey) == 0 {
		JWTKey = []byte("secret")
	}

	expireStr := os.Getenv("JWT_EXPIRE")
	dur := 24 * time.Hour
	if expireStr != "" {
		if expireStr == "7d" {
			dur = 7 * 24 * time.Hour
		} else {
			var err error
			dur, err = time.ParseDuration(expireStr)
			if err != nil {
				log.Printf("Invalid JWT_EXPIRE: %s, using 24h", expireStr)
				dur = 24 * time.Hour
			}
		}
	}
	JWTExpiration = dur

	ClientOrigin = os.Getenv("CLIENT_ORIGIN")

	// Standard 5-field cron spec; default fires once a day at 07:00.
	NotifySchedule = os.Getenv("NOTIFY_SCHEDULE")
	if NotifySchedule == "" {
		NotifySchedule = "0 7 * * *"
	}

	DueSoonDays = 14
	if v := os.Getenv("DUE_SOON_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			log.Printf("Invalid DUE_SOON_DAYS: %s, using 14", v)
		} else {
			DueSoonDays = n
		}
	}
}
