package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	githubUC "github.com/khoahotran/devconnector/internal/application/usecase/github"
)

type GithubHandler struct {
	reposUseCase *githubUC.ReposUseCase
}

func NewGithubHandler(uc *githubUC.ReposUseCase) *GithubHandler {
	return &GithubHandler{reposUseCase: uc}
}

// ListRepos relays the upstream JSON untouched.
func (h *GithubHandler) ListRepos(c *gin.Context) {
	output, err := h.reposUseCase.Execute(c.Request.Context(), githubUC.ListReposInput{
		Username: c.Param("username"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", output.Body)
}
