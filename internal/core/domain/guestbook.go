package domain

const (
	MaxNameLength    = 20
	MaxMessageLength = 100
	MaxEntries       = 500
	PublicListLimit  = 50
	AnonymousName    = "Anonymous"

	// DateLayout is the ISO calendar date stored with every entry.
	DateLayout = "2006-01-02"
)

// GuestbookEntry é a forma persistida de uma assinatura. IdentityHash nunca sai do servidor.
type GuestbookEntry struct {
	Name         string `json:"name"`
	Message      string `json:"message"`
	Date         string `json:"date"`
	IdentityHash string `json:"ip"`
}

// PublicEntry é a projeção pública de uma entrada.
type PublicEntry struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Date    string `json:"date"`
}

func (e GuestbookEntry) Public() PublicEntry {
	return PublicEntry{Name: e.Name, Message: e.Message, Date: e.Date}
}
