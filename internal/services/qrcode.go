package services

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const QRCodeSize = 256

// TableQRCode encode l'URL de commande d'une table en PNG.
func TableQRCode(baseURL string, tableNumber int) ([]byte, error) {
	return qrcode.Encode(TableURL(baseURL, tableNumber), qrcode.Medium, QRCodeSize)
}

func TableURL(baseURL string, tableNumber int) string {
	return fmt.Sprintf("%s/user?table=%d", strings.TrimRight(baseURL, "/"), tableNumber)
}
