package grounding

import "cargo-chat/internal/domain"

// StatusSv names a shipment status in Swedish.
func StatusSv(st domain.ShipmentStatus) string {
	switch st {
	case domain.StatusWaitingForApproval:
		return "Väntar på godkännande"
	case domain.StatusApproved:
		return "Godkänd"
	case domain.StatusDenied:
		return "Nekad"
	case domain.StatusAssigned:
		return "Tilldelad"
	case domain.StatusInTransit:
		return "Under transport"
	case domain.StatusDelivered:
		return "Levererad"
	case domain.StatusCancelled:
		return "Avbruten"
	default:
		return string(st)
	}
}

// LocationPhrase derives where a shipment physically is from its status.
func LocationPhrase(s domain.Shipment) string {
	switch s.Status {
	case domain.StatusInTransit:
		return "Under transport till " + s.Receiver.Planet
	case domain.StatusApproved:
		return "På " + s.Sender.Planet + ", väntar på pilot"
	case domain.StatusAssigned:
		return "På " + s.Sender.Planet + ", väntar på avgång"
	case domain.StatusWaitingForApproval:
		return "På " + s.Sender.Planet + ", väntar på godkännande"
	case domain.StatusDelivered:
		return "Levererad till " + s.Receiver.Planet
	case domain.StatusCancelled, domain.StatusDenied:
		return "På " + s.Sender.Planet
	default:
		return "Okänd plats"
	}
}
