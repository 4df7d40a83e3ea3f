package router

import (
	"github.com/gofiber/fiber/v2"
	httpx "github.com/tuff-sh/tuffhub/pkg/http"
)

type teamMember struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
	Link   string `json:"link,omitempty"`
}

// 市场关于页的静态团队信息
var teamMembers = []teamMember{
	{Name: "Tuff Core", Role: "Maintainers", Link: "https://github.com/tuff-sh"},
	{Name: "Community", Role: "Contributors"},
}

func (rt *Router) teamRouter(r fiber.Router) {
	r.Get("/team", func(c *fiber.Ctx) error {
		return httpx.WithRepJSON(c, teamMembers)
	})
}
