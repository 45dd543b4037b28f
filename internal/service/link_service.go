package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/lmorrow/quizforge/config"
	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/dto"
	"github.com/lmorrow/quizforge/internal/model"
	"github.com/lmorrow/quizforge/internal/random"
	"github.com/lmorrow/quizforge/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	defaultLinkDays     = 14
	defaultLinkAttempts = 1
)

// LinkService mints per-student access links for a quiz and optionally mails
// them out. Minting is authoritative; mail delivery is best-effort and a
// failed send is reported on the minted link rather than failing the batch.
type LinkService interface {
	MintLinks(req dto.MintLinksRequest) (*dto.MintLinksResponse, error)
}

type linkService struct {
	linkRepo repository.StudentLinkRepository
	quizRepo repository.QuizRepository
	mailer   Mailer
	baseURL  string
	newToken func() (string, error)
	now      func() time.Time
}

func NewLinkService(
	linkRepo repository.StudentLinkRepository,
	quizRepo repository.QuizRepository,
	mailer Mailer,
	cfg *config.Config,
) LinkService {
	return &linkService{
		linkRepo: linkRepo,
		quizRepo: quizRepo,
		mailer:   mailer,
		baseURL:  cfg.BaseURL,
		newToken: random.Token,
		now:      time.Now,
	}
}

func (s *linkService) MintLinks(req dto.MintLinksRequest) (*dto.MintLinksResponse, error) {
	quiz, err := s.quizRepo.FindByID(req.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "quiz not found")
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load quiz", err)
	}

	days := req.Days
	if days <= 0 {
		days = defaultLinkDays
	}
	attempts := req.Attempts
	if attempts <= 0 {
		attempts = defaultLinkAttempts
	}
	expiresAt := s.now().Add(time.Duration(days) * 24 * time.Hour)

	links := make([]model.StudentLink, 0, len(req.Emails))
	for _, email := range req.Emails {
		token, err := s.newToken()
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not generate link token", err)
		}
		links = append(links, model.StudentLink{
			QuizID:       quiz.ID,
			StudentEmail: email,
			Token:        token,
			ExpiresAt:    expiresAt,
			MaxAttempts:  attempts,
		})
	}
	if err := s.linkRepo.CreateBatch(links); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not create links", err)
	}

	minted := make([]dto.MintedLink, len(links))
	for i, link := range links {
		url := fmt.Sprintf("%s/quiz/%d?token=%s", s.baseURL, quiz.ID, link.Token)
		minted[i] = dto.MintedLink{
			StudentEmail: link.StudentEmail,
			Token:        link.Token,
			URL:          url,
		}
		if req.Send {
			if !s.mailer.Enabled() {
				minted[i].MailError = "mail delivery disabled"
				continue
			}
			if err := s.mailer.SendQuizLink(link.StudentEmail, quiz.Title, url, attempts); err != nil {
				minted[i].MailError = err.Error()
			}
		}
	}

	log.Info().Uint("quizID", quiz.ID).Int("links", len(minted)).Bool("send", req.Send).
		Msg("Student links minted")
	return &dto.MintLinksResponse{Links: minted}, nil
}
