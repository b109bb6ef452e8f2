// Package logger construit le logger logrus partagé par tout le serveur.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New retourne un logger configuré selon le niveau et le format demandés.
// Un niveau inconnu retombe sur "info".
func New(level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
