package client_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

func Example_basicUsage() {
	c := client.NewClient(client.Config{
		BaseURL:     "http://localhost:8000",
		Credentials: client.NewStaticCredentials(""),
	})

	if _, err := c.Login(context.Background(), "admin@example.com", "password"); err != nil {
		log.Fatal(err)
	}

	companies, err := c.Companies().FetchAll(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	for _, company := range companies {
		fmt.Printf("%d %s (%s)\n", company.ID, company.Name, company.Status)
	}
}

func Example_errorKinds() {
	c := client.NewClient(client.Config{
		BaseURL:     "http://localhost:8000",
		Credentials: client.NewStaticCredentials("your-jwt-token"),
	})

	_, err := c.Companies().Get(context.Background(), 42)
	switch {
	case errors.Is(err, client.ErrNotFound):
		fmt.Println("company 42 no longer exists")
	case errors.Is(err, client.ErrAuth):
		fmt.Println("log in again")
	case errors.Is(err, client.ErrValidation):
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fmt.Println(apiErr.Detail)
		}
	case err != nil:
		log.Fatal(err)
	}
}

func Example_runScraper() {
	c := client.NewClient(client.Config{
		BaseURL:     "http://localhost:8000",
		Credentials: client.NewStaticCredentials("your-jwt-token"),
	})
	ctx := context.Background()

	ref, err := c.Sites().RunScraper(ctx, 3)
	if err != nil {
		log.Fatal(err)
	}

	status, err := c.Sites().TaskStatus(ctx, ref.TaskID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("task %s is %s\n", status.TaskID, status.Status)
}

func Example_uploadScraper() {
	c := client.NewClient(client.Config{
		BaseURL:     "http://localhost:8000",
		Credentials: client.NewStaticCredentials("your-jwt-token"),
	})

	scraper, err := c.Scrapers().Upload(context.Background(), "forum-x", "forum_x.py",
		strings.NewReader("def scrape(page):\n    return []\n"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("uploaded scraper %d\n", scraper.ID)
}

func Example_alerts() {
	c := client.NewClient(client.Config{
		BaseURL:     "http://localhost:8000",
		Credentials: client.NewStaticCredentials("your-jwt-token"),
	})

	severity := "critical"
	status := "open"
	alerts, err := c.Alerts().List(context.Background(), &client.AlertListOptions{
		Severity: &severity,
		Status:   &status,
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, alert := range alerts {
		if _, err := c.Alerts().Acknowledge(context.Background(), alert.ID); err != nil {
			log.Printf("acknowledge %d: %v", alert.ID, err)
		}
	}
}
