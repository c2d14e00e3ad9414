package dto

import (
	"time"

	domainproperty "stayhub/internal/domain/property"
	"stayhub/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type PropertyView struct {
	ID             string    `json:"id"`
	HostID         string    `json:"host_id"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	NightlyRate    MoneyDTO  `json:"nightly_rate"`
	Available      bool      `json:"available"`
	ApprovalStatus string    `json:"approval_status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type PropertyCollection struct {
	Items []PropertyView `json:"items"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

func MapPropertyView(p *domainproperty.Property) PropertyView {
	if p == nil {
		return PropertyView{}
	}
	return PropertyView{
		ID:             string(p.ID),
		HostID:         string(p.HostID),
		Name:           p.Name,
		Location:       p.Location,
		NightlyRate:    MapMoney(p.NightlyRate),
		Available:      p.Available,
		ApprovalStatus: string(p.ApprovalStatus),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func MapPropertyCollection(items []*domainproperty.Property) PropertyCollection {
	out := PropertyCollection{Items: make([]PropertyView, 0, len(items))}
	for _, p := range items {
		out.Items = append(out.Items, MapPropertyView(p))
	}
	return out
}
