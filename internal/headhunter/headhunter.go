package headhunter

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.hh.ru"
	userAgent = "dima1799/jobradar-ai"
	// Max value for search per page.
	perPage = "100"
)

type Client struct {
	// ctx used only for http requests right now
	ctx        context.Context
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New builds an hh.ru client. token is optional: the vacancy endpoints used
// here work anonymously, authorized requests just get higher rate limits.
func New(ctx context.Context, logger *zap.Logger, token string) *Client {
	return &Client{
		ctx:    ctx,
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Search(params *SearchParams) (*Vacancies, error) {
	return c.search(params)
}

// GetVacancy fetches the full posting, including the description the
// search listing omits.
func (c *Client) GetVacancy(id string) (*Vacancy, error) {
	return c.getVacancy(id)
}
