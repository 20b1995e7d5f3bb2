package web

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-while/go-nntparc/internal/models"
)

// displayMessage carries one message with its header fields decoded and
// the body cleaned up for rendering. Stored rows stay raw.
type displayMessage struct {
	*models.Message
	DisplaySubject string
	DisplaySender  string
	DisplayBody    string
}

func (s *WebServer) homePage(c *gin.Context) {
	groups, err := s.DB.GetGroups()
	if err != nil {
		log.Printf("[WEB] failed to load groups: %v", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Groups": groups,
	})
}

func (s *WebServer) groupPage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "bad group id")
		return
	}
	group, err := s.DB.GetGroupByID(id)
	if err != nil {
		log.Printf("[WEB] failed to load group %d: %v", id, err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	if group == nil {
		c.String(http.StatusNotFound, "no such group")
		return
	}
	threads, err := s.DB.GetThreads(group.ID, 50)
	if err != nil {
		log.Printf("[WEB] failed to load threads for group %d: %v", id, err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.HTML(http.StatusOK, "group.html", gin.H{
		"Group":   group,
		"Threads": threads,
	})
}

func (s *WebServer) threadPage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "bad thread id")
		return
	}
	thread, err := s.DB.GetThreadByID(id)
	if err != nil {
		log.Printf("[WEB] failed to load thread %d: %v", id, err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	if thread == nil {
		c.String(http.StatusNotFound, "no such thread")
		return
	}
	group, err := s.DB.GetGroupByID(thread.GroupID)
	if err != nil || group == nil {
		log.Printf("[WEB] failed to load group %d for thread %d: %v", thread.GroupID, id, err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	messages, err := s.DB.GetThreadMessages(thread.ID)
	if err != nil {
		log.Printf("[WEB] failed to load messages for thread %d: %v", id, err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	display := make([]*displayMessage, 0, len(messages))
	for _, m := range messages {
		display = append(display, &displayMessage{
			Message:        m,
			DisplaySubject: models.DecodeHeaderValue(m.Subject),
			DisplaySender:  models.DecodeHeaderValue(m.Sender),
			DisplayBody:    models.CleanBodyForDisplay(m.Body),
		})
	}

	c.HTML(http.StatusOK, "thread.html", gin.H{
		"Group":    group,
		"Thread":   thread,
		"Messages": display,
	})
}

// requireAdmin guards the manual refresh trigger with the configured
// bcrypt password hash via HTTP basic auth. An empty hash disables the
// trigger entirely.
func (s *WebServer) requireAdmin(c *gin.Context) {
	hash := s.Config.Web.AdminPasswordHash
	if hash == "" {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	_, password, ok := c.Request.BasicAuth()
	if !ok || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		c.Header("WWW-Authenticate", `Basic realm="nntparc"`)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Next()
}

func (s *WebServer) updateHandler(c *gin.Context) {
	err := s.Proc.UpdateMessages(s.Config.Groups, s.Config.FetchNewCount, s.Config.FetchCount)
	if err != nil {
		log.Printf("[WEB] manual update finished with errors: %v", err)
		c.String(http.StatusBadGateway, "update finished with errors, see logs")
		return
	}
	c.String(http.StatusOK, "done")
}

func (s *WebServer) getStats(c *gin.Context) {
	stats, err := s.DB.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *WebServer) getMessageReferences(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad message id"})
		return
	}
	refs, err := s.DB.GetMessageReferences(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"references": refs})
}
