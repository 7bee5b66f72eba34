package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsroom/internal/db"
	"github.com/newsroom/internal/service"
)

const feedItemLimit = 20

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Description   string    `xml:"description"`
	Link          string    `xml:"link"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Author      string `xml:"author"`
}

// RSSFeed serves the newest published articles as RSS 2.0.
func (a *API) RSSFeed(c *gin.Context) {
	result, err := a.articles.List(service.ArticleFilter{
		Status:  db.StatusPublished,
		Page:    1,
		PerPage: feedItemLimit,
	})
	if err != nil {
		a.log.Error().Err(err).Msg("rss feed")
		c.String(http.StatusInternalServerError, "Error generating RSS feed")
		return
	}

	items := make([]rssItem, 0, len(result.Articles))
	for i := range result.Articles {
		article := &result.Articles[i]
		link := fmt.Sprintf("%s/article/%s", a.siteBaseURL, article.Slug)
		items = append(items, rssItem{
			Title:       article.Title,
			Description: article.ShortDescription,
			Link:        link,
			GUID:        link,
			PubDate:     article.PublishDate.UTC().Format(time.RFC1123Z),
			Author:      article.Author.Name,
		})
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:         a.siteName,
			Description:   "Latest news from Bahadurgarh and around the world",
			Link:          a.siteBaseURL,
			Language:      "en-us",
			LastBuildDate: time.Now().UTC().Format(time.RFC1123Z),
			Items:         items,
		},
	}

	body, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		a.log.Error().Err(err).Msg("marshal rss feed")
		c.String(http.StatusInternalServerError, "Error generating RSS feed")
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, xml.Header+string(body))
}
