package auth

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Metadata correspond au champ user_metadata d'un compte.
type Metadata struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// ParseMetadata lit user_metadata ; un JSON invalide donne des champs vides.
func ParseMetadata(raw string) Metadata {
	if raw == "" || !gjson.Valid(raw) {
		return Metadata{}
	}
	res := gjson.GetMany(raw, "username", "role")
	return Metadata{
		Username: strings.TrimSpace(res[0].String()),
		Role:     strings.TrimSpace(res[1].String()),
	}
}

func EncodeMetadata(m Metadata) string {
	data, _ := json.Marshal(m)
	return string(data)
}

// emailLocalPart renvoie la partie avant "@", utilisée comme nom par défaut.
func emailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
