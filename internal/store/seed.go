// AngelaMos | 2026
// seed.go

package store

import (
	"time"

	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
)

func DefaultSettings() domain.Settings {
	return domain.Settings{
		Logo:     "B",
		SiteName: "Brasil no Mundo",
	}
}

func DefaultPlans() []domain.Plan {
	return []domain.Plan{
		{
			ID:       domain.TierFree,
			Name:     "Grátis",
			Price:    0,
			Features: []string{"Chat Global", "Ver Encontros", "Ver Negócios"},
		},
		{
			ID:    domain.TierPro,
			Name:  "Pro",
			Price: 29.90,
			Features: []string{
				"Tudo do Grátis",
				"Cadastrar Negócios",
				"Destaque no Diretório",
			},
		},
	}
}

// Seed loads the admin account and the demo community content. It bypasses
// the pending-on-create rule so the directory and blog start populated.
func (s *Store) Seed(admin domain.User, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin.Role = domain.RoleAdmin
	admin.Tier = domain.TierPro
	admin.CreatedAt = now
	admin.UpdatedAt = now
	if _, err := s.createUserLocked(admin); err != nil {
		return err
	}

	for _, msg := range []domain.ChatMessage{
		{Author: "Mariana", Text: "Olá pessoal! Alguém em Toronto?"},
		{Author: "João", Text: "Oi Mariana! Eu estou em Dublin, mas morei aí ano passado."},
	} {
		msg.ID = s.allocateID()
		msg.Time = now
		s.appendMessageLocked(msg)
	}

	for _, m := range []domain.Meetup{
		{Title: "Churrasco no Park", Location: "Phoenix Park, Dublin", Date: "2024-03-10", Attendees: 15, Creator: "João"},
		{Title: "Café com Empreendedores", Location: "Brickell, Miami", Date: "2024-03-15", Attendees: 8, Creator: "Ana"},
	} {
		m.ID = s.allocateID()
		s.meetups = append(s.meetups, m)
	}

	for _, b := range []domain.Business{
		{
			Name:        "Sabor do Brasil",
			Type:        "Restaurante",
			Location:    "Lisboa, PT",
			Description: "O melhor da culinária mineira no coração de Lisboa.",
		},
		{
			Name:        "Mercado Tropical",
			Type:        "Mercado",
			Location:    "Miami, EUA",
			Description: "Pão de queijo, guaraná e todos os produtos que você sente falta.",
		},
	} {
		b.ID = s.allocateID()
		b.Status = domain.StatusApproved
		b.CreatedAt = now
		s.businesses.add(b)
	}

	s.posts.add(domain.Post{
		ID:       s.allocateID(),
		Title:    "Dicas para morar em Portugal",
		Content:  "Portugal é um país incrível para brasileiros...",
		Author:   admin.Name,
		AuthorID: admin.ID,
		Status:   domain.StatusApproved,
		Date:     now,
	})

	return nil
}
