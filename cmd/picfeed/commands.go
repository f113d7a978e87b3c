package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/apiclient"
	"github.com/oggyb/picfeed/internal/collection"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/optimistic"
	"github.com/oggyb/picfeed/internal/thread"
	"github.com/oggyb/picfeed/internal/utils/pagination"
)

func feedCommand() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "List posts, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Value: 1},
			&cli.IntFlag{Name: "limit", Value: 10},
			&cli.BoolFlag{Name: "all", Usage: "follow nextPage until the feed is exhausted"},
			&cli.StringFlag{Name: "user", Usage: "only posts by this user id"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			client := clientFrom(c)
			limit := int(c.Int("limit"))
			user := c.String("user")

			if !c.Bool("all") {
				page, err := client.ListPosts(ctx, int(c.Int("page")), limit, user)
				if err != nil {
					return err
				}
				if c.Bool("json") {
					return printJSON(page)
				}
				printPosts(page.Items)
				if page.HasMore && page.NextPage != nil {
					fmt.Printf("-- more: --page %d\n", *page.NextPage)
				}
				return nil
			}

			feed := collection.NewLoader(func(ctx context.Context, page int) (pagination.Page[api.Post], error) {
				return client.ListPosts(ctx, page, limit, user)
			})
			defer feed.Close()
			for feed.HasMore() {
				if _, err := feed.LoadNext(ctx); err != nil {
					return err
				}
			}
			if c.Bool("json") {
				return printJSON(feed.Items())
			}
			printPosts(feed.Items())
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one post",
		ArgsUsage: "<post-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, 1, "<post-id>"); err != nil {
				return err
			}
			p, err := clientFrom(c).GetPost(ctx, c.Args().First())
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(p)
			}
			printPosts([]api.Post{p})
			return nil
		},
	}
}

func postCommand() *cli.Command {
	return &cli.Command{
		Name:      "post",
		Usage:     "Upload an image and publish it",
		ArgsUsage: "<image-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "caption"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, 1, "<image-file>"); err != nil {
				return err
			}
			path := c.Args().First()
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			client := clientFrom(c)
			url, err := client.UploadImage(ctx, contentTypeOf(path, f), f)
			if err != nil {
				return err
			}
			req := api.CreatePostRequest{ImageURL: url}
			if caption := c.String("caption"); caption != "" {
				req.Caption = &caption
			}
			p, err := client.CreatePost(ctx, req)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(p)
			}
			fmt.Printf("posted %s\n", p.ID)
			return nil
		},
	}
}

func contentTypeOf(path string, f *os.File) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	head := make([]byte, 512)
	n, _ := f.Read(head)
	_, _ = f.Seek(0, io.SeekStart)
	return http.DetectContentType(head[:n])
}

func deletePostCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete-post",
		Usage:     "Delete one of your posts",
		ArgsUsage: "<post-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, 1, "<post-id>"); err != nil {
				return err
			}
			return clientFrom(c).DeletePost(ctx, c.Args().First())
		},
	}
}

func likeCommand(name string, want bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     name + " a post",
		ArgsUsage: "<post-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, 1, "<post-id>"); err != nil {
				return err
			}
			client := clientFrom(c)
			postID := c.Args().First()
			p, err := client.GetPost(ctx, postID)
			if err != nil {
				return err
			}

			ctl := optimistic.NewController()
			ctl.Seed(postID, optimistic.State{Active: p.IsLiked, Count: int(p.LikesCount)})
			ctl.OnChange(func(target string, s optimistic.State) {
				fmt.Printf("%s liked=%t likes=%d\n", target, s.Active, s.Count)
			})
			if p.IsLiked == want {
				if want {
					return client.Like(ctx, postID)
				}
				return nil
			}
			_, err = ctl.Toggle(ctx, postID, func(ctx context.Context, active bool) error {
				if active {
					return client.Like(ctx, postID)
				}
				return client.Unlike(ctx, postID)
			})
			return err
		},
	}
}

func followCommand(name string, want bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     name + " a user",
		ArgsUsage: "<user-id|external-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, 1, "<user-id|external-id>"); err != nil {
				return err
			}
			client := clientFrom(c)
			target, err := client.Profile(ctx, c.Args().First())
			if err != nil {
				return err
			}
			if target.IsFollowing == want {
				fmt.Printf("%s following=%t followers=%d\n", target.Name, target.IsFollowing, target.FollowersCount)
				return nil
			}

			ctl := optimistic.NewController()
			ctl.Seed(target.ID, optimistic.State{Active: target.IsFollowing, Count: int(target.FollowersCount)})
			s, err := ctl.Toggle(ctx, target.ID, func(ctx context.Context, active bool) error {
				if active {
					return client.Follow(ctx, target.ID)
				}
				return client.Unfollow(ctx, target.ID)
			})
			fmt.Printf("%s following=%t followers=%d\n", target.Name, s.Active, s.Count)
			return err
		},
	}
}

func commentsCommand() *cli.Command {
	return &cli.Command{
		Name:      "comments",
		Usage:     "List a post's comments",
		ArgsUsage: "<post-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20},
			&cli.BoolFlag{Name: "all"},
			&cli.BoolFlag{Name: "asc", Usage: "oldest first"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, 1, "<post-id>"); err != nil {
				return err
			}
			loader := commentLoader(clientFrom(c), c.Args().First(), int(c.Int("limit")), c.Bool("asc"))
			defer loader.Close()
			if _, err := loader.LoadNext(ctx); err != nil {
				return err
			}
			for c.Bool("all") && loader.HasMore() {
				if _, err := loader.LoadNext(ctx); err != nil {
					return err
				}
			}
			if c.Bool("json") {
				return printJSON(loader.Items())
			}
			printComments(loader.Items())
			return nil
		},
	}
}

func commentLoader(client *apiclient.Client, postID string, limit int, asc bool) *collection.Loader[api.Comment] {
	return collection.NewLoader(func(ctx context.Context, page int) (pagination.Page[api.Comment], error) {
		return client.ListComments(ctx, postID, page, limit, asc)
	})
}

// openThread resolves the caller and the post's current count.
func openThread(ctx context.Context, client *apiclient.Client, postID string) (*thread.Thread, *collection.Loader[api.Comment], error) {
	me, err := client.Sync(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := client.GetPost(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	loader := commentLoader(client, postID, 50, false)
	th := thread.New(thread.Options{
		PostID:   postID,
		ActorID:  me.ID,
		Count:    int(p.CommentsCount),
		Comments: loader,
		Create:   client.CreateComment,
		Delete:   client.DeleteComment,
	})
	return th, loader, nil
}

func commentCommand() *cli.Command {
	return &cli.Command{
		Name:      "comment",
		Usage:     "Comment on a post",
		ArgsUsage: "<post-id> <text>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, 2, "<post-id> <text>"); err != nil {
				return err
			}
			th, loader, err := openThread(ctx, clientFrom(c), c.Args().First())
			if err != nil {
				return err
			}
			defer loader.Close()

			cm, err := th.Submit(ctx, strings.Join(c.Args().Slice()[1:], " "))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(cm)
			}
			fmt.Printf("commented %s (%d comments)\n", cm.ID, th.Count())
			return nil
		},
	}
}

func uncommentCommand() *cli.Command {
	return &cli.Command{
		Name:      "uncomment",
		Usage:     "Delete one of your comments",
		ArgsUsage: "<post-id> <comment-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, 2, "<post-id> <comment-id>"); err != nil {
				return err
			}
			th, loader, err := openThread(ctx, clientFrom(c), c.Args().First())
			if err != nil {
				return err
			}
			defer loader.Close()

			commentID := c.Args().Get(1)
			for {
				if _, ok := loader.Get(commentID); ok || !loader.HasMore() {
					break
				}
				if _, err := loader.LoadNext(ctx); err != nil {
					return err
				}
			}
			if err := th.Delete(ctx, commentID); err != nil {
				return err
			}
			fmt.Printf("deleted %s (%d comments)\n", commentID, th.Count())
			return nil
		},
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:      "profile",
		Usage:     "Show a user's profile and posts",
		ArgsUsage: "<user-id|external-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, 1, "<user-id|external-id>"); err != nil {
				return err
			}
			client := clientFrom(c)
			p, err := client.Profile(ctx, c.Args().First())
			if err != nil {
				return err
			}
			grid, err := client.ListPosts(ctx, 1, pagination.MaxLimit, p.ID)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(struct {
					User  api.Profile `json:"user"`
					Posts []api.Post  `json:"posts"`
				}{p, grid.Items})
			}
			fmt.Printf("%s (%s)\n  posts %d  followers %d  following %d  you follow: %t\n",
				p.Name, p.ExternalID, p.PostsCount, p.FollowersCount, p.FollowingCount, p.IsFollowing)
			printPosts(grid.Items)
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search users by name",
		ArgsUsage: "<query>",
		Action: func(ctx context.Context, c *cli.Command) error {
			users, err := clientFrom(c).Search(ctx, strings.Join(c.Args().Slice(), " "))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(users)
			}
			for _, u := range users {
				fmt.Printf("%s  %-20s followers %d  following: %t\n", u.ID, u.Name, u.FollowersCount, u.IsFollowing)
			}
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Create or refresh your profile from the token",
		Action: func(ctx context.Context, c *cli.Command) error {
			me, err := clientFrom(c).Sync(ctx)
			if svcErr.IsKind(err, svcErr.KindUnauthorized) {
				return fmt.Errorf("sync needs --token or PICFEED_TOKEN: %w", err)
			}
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(me)
			}
			fmt.Printf("%s %s\n", me.ID, me.Name)
			return nil
		},
	}
}

func printPosts(posts []api.Post) {
	for _, p := range posts {
		liked := " "
		if p.IsLiked {
			liked = "*"
		}
		caption := ""
		if p.Caption != nil {
			caption = *p.Caption
		}
		fmt.Printf("%s %s  %-16s likes %-4d comments %-4d %s\n",
			liked, p.ID, p.User.Name, p.LikesCount, p.CommentsCount, caption)
	}
}

func printComments(comments []api.Comment) {
	for _, c := range comments {
		fmt.Printf("%s  %s  %s: %s\n", c.ID, c.CreatedAt.Format("2006-01-02 15:04"), c.User.Name, c.Content)
	}
}
