package v1

// TransferKind says how a ticket changed hands.
type TransferKind string

const (
	TransferPrimary TransferKind = "primary"
	TransferGift    TransferKind = "transfer"
	TransferResale  TransferKind = "resale"
)

// DefaultTicketClass is the class stamped on every primary-issued ticket.
const DefaultTicketClass = "Standard"

// TransferRecord is one entry of a ticket's ownership history.
type TransferRecord struct {
	From      string       `json:"from"`
	To        string       `json:"to"`
	Price     int64        `json:"price"`
	Kind      TransferKind `json:"kind"`
	Timestamp int64        `json:"timestamp"`
}

// TicketMetadata is display data snapshotted at issuance.
type TicketMetadata struct {
	EventName    string           `json:"event_name" cbor:"event_name"`
	TicketClass  string           `json:"ticket_class" cbor:"ticket_class"`
	SeatInfo     Optional[string] `json:"seat_info,omitzero" cbor:"seat_info"`
	PurchaseDate int64            `json:"purchase_date" cbor:"purchase_date"`
}

// Listing is the single resale slot of a ticket.
type Listing struct {
	Listed      bool  `json:"listed"`
	ResalePrice int64 `json:"resale_price"`
}

// Ticket is an issued ticket token.
type Ticket struct {
	TokenID       uint64 `json:"token_id"`
	EventID       uint64 `json:"event_id"`
	Owner         string `json:"owner"`
	OriginalPrice int64  `json:"original_price"`

	// CurrentPrice equals OriginalPrice unless the ticket is listed, in which
	// case it equals the listing price.
	CurrentPrice int64 `json:"current_price"`

	// IsValid is true until invalidation, which is terminal.
	IsValid bool `json:"is_valid"`

	Listing  Listing                  `json:"listing"`
	Metadata Optional[TicketMetadata] `json:"metadata,omitzero"`
	History  []TransferRecord         `json:"history"`
}

// Clone returns a copy that shares no mutable state with t.
func (t *Ticket) Clone() *Ticket {
	c := *t
	if t.History != nil {
		c.History = make([]TransferRecord, len(t.History))
		copy(c.History, t.History)
	}
	return &c
}

// ClearListing removes any resale listing and restores face value.
func (t *Ticket) ClearListing() {
	t.Listing = Listing{}
	t.CurrentPrice = t.OriginalPrice
}

// TransferRequest is the body of the transfer endpoint.
type TransferRequest struct {
	Recipient string `json:"recipient"`
}

// ListForResaleRequest is the body of the resale listing endpoint.
type ListForResaleRequest struct {
	Price int64 `json:"price"`
}

// ResaleListing is a projection of a listed ticket.
type ResaleListing struct {
	TokenID       uint64 `json:"token_id"`
	EventID       uint64 `json:"event_id"`
	Seller        string `json:"seller"`
	ResalePrice   int64  `json:"resale_price"`
	OriginalPrice int64  `json:"original_price"`
	PriceCap      int64  `json:"price_cap"`
}

// TokenMetadata is the NFT-style view of a ticket token.
type TokenMetadata struct {
	TokenID      uint64      `json:"token_id"`
	Owner        string      `json:"owner"`
	MetadataBlob []byte      `json:"metadata_blob,omitempty"`
	Properties   [][2]string `json:"properties"`
	IsApproved   bool        `json:"is_approved"`
}

// VerifyResponse is the body of the ticket verification endpoint.
type VerifyResponse struct {
	TokenID uint64 `json:"token_id"`
	Owner   string `json:"owner"`
	Valid   bool   `json:"valid"`
}
