package usecase

import (
	"fmt"
	"strings"

	"cargo-chat/internal/domain"
	"cargo-chat/internal/grounding"
)

const defaultInstruction = "Formulera ett svar på svenska utifrån DATA."

// buildPromptMessages lays out the system prompt, the conversation and, only
// when grounding produced a payload, one final DATA turn.
func buildPromptMessages(history []domain.ChatMessage, g grounding.Grounding) ([]domain.ChatMessage, error) {
	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleSystem,
		Content: buildSystemPrompt(),
	})

	for _, m := range history {
		messages = append(messages, domain.ChatMessage{
			Role:    m.PromptRole(),
			Content: m.Content,
		})
	}

	if !g.HasPayload() {
		return messages, nil
	}
	data, err := dataTurn(g)
	if err != nil {
		return nil, err
	}
	return append(messages, data), nil
}

func dataTurn(g grounding.Grounding) (domain.ChatMessage, error) {
	raw, err := grounding.Marshal(g.Payload)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("usecase: encode grounding: %w", err)
	}
	instruction := strings.TrimSpace(g.Instruction)
	if instruction == "" {
		instruction = defaultInstruction
	}
	return domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: instruction + "\nDATA:\n```json\n" + string(raw) + "\n```",
	}, nil
}

// buildSystemPrompt holds only static text so the prompt size stays fixed.
func buildSystemPrompt() string {
	return strings.Join([]string{
		"Du är en hjälpsam och glad supportassistent för en intergalaktisk fraktfirma, lite som Willy Wonka. Använd gärna emojis.",
		"Svara endast på frågor om frakter, regler, formulär och logistik.",
		"Kommentera aldrig att du är en AI eller hur du fungerar.",
		"När användaren ber om \"visa all info\" ska du ge en fullständig lista över fraktens uppgifter.",
		"Om du är osäker på vad användaren menar, be dem förtydliga.",
		"Använd endast DATA för fraktuppgifter och hitta aldrig på egna.",
		"Om ingen frakt anges, be användaren skriva 'senaste' eller ange ett ID.",
		"",
		"Regler:",
		rules(),
	}, "\n")
}

func rules() string {
	return strings.Join([]string{
		"- 'Försvunnen i svart hål' betyder att frakten är permanent förlorad och inte kan återfås.",
		"- Risknivåer går från 1 till 5: 1 = Mycket låg, 3 = Mellan, 5 = Mycket hög (farligt gods).",
		"- Tullformuläret frågar efter kategori, vikt, värde och om lasten är plasma-aktiv. Guida användaren steg för steg.",
	}, "\n")
}
