// voicectl 命令行客户端：上传录音（可选端到端加密）、创建分享链接、下载分享的录音
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/3Eeeecho/securevoice/internal/pkg/audiocrypt"
	"github.com/3Eeeecho/securevoice/internal/voiceclient"
	"golang.org/x/term"
)

const usage = `usage: voicectl [-server URL] [-token TOKEN] <command> [flags]

commands:
  login   -email EMAIL                      print a login token (password is prompted)
  upload  -file PATH -title TITLE [-encrypt] [-public] [-duration SEC] [-description TEXT]
  share   -id SNIPPET_ID [-max-plays N] [-days N] [-access-key KEY]
  fetch   -link URL_OR_TOKEN -out PATH [-key ACCESS_KEY] [-decrypt-key HEX]

SECUREVOICE_SERVER and SECUREVOICE_TOKEN are used when the flags are omitted.
`

func main() {
	global := flag.NewFlagSet("voicectl", flag.ExitOnError)
	server := global.String("server", envOr("SECUREVOICE_SERVER", "http://localhost:8080"), "server base URL")
	token := global.String("token", os.Getenv("SECUREVOICE_TOKEN"), "login token")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = global.Parse(os.Args[1:])

	args := global.Args()
	if len(args) == 0 {
		global.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := voiceclient.New(*server, *token, nil)
	var err error
	switch args[0] {
	case "login":
		err = runLogin(ctx, client, args[1:])
	case "upload":
		err = runUpload(ctx, client, args[1:])
	case "share":
		err = runShare(ctx, client, args[1:])
	case "fetch":
		err = runFetch(ctx, client, args[1:])
	default:
		global.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runLogin(ctx context.Context, client *voiceclient.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	_ = fs.Parse(args)
	if *email == "" {
		return errors.New("-email is required")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	tok, err := client.Login(ctx, *email, string(password))
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func runUpload(ctx context.Context, client *voiceclient.Client, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	file := fs.String("file", "", "audio file")
	title := fs.String("title", "", "snippet title")
	description := fs.String("description", "", "snippet description")
	duration := fs.Float64("duration", 0, "duration in seconds")
	encrypt := fs.Bool("encrypt", false, "encrypt with a fresh AES-256-GCM key before upload")
	public := fs.Bool("public", false, "make the snippet public")
	_ = fs.Parse(args)
	if *file == "" || *title == "" {
		return errors.New("-file and -title are required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	req := voiceclient.UploadRequest{
		FileName:    filepath.Base(*file),
		ContentType: mime.TypeByExtension(filepath.Ext(*file)),
		Data:        data,
		Title:       *title,
		Description: *description,
		Duration:    *duration,
		IsPrivate:   !*public,
	}

	var key []byte
	if *encrypt {
		if key, err = audiocrypt.NewKey(); err != nil {
			return err
		}
		if req.Sealed, err = audiocrypt.Encrypt(key, data); err != nil {
			return err
		}
	}

	s, err := client.Upload(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("snippet %d uploaded\n", s.ID)
	if key != nil {
		// 密钥只在本地输出一次，服务端不保存
		fmt.Printf("decryption key: %s\n", hex.EncodeToString(key))
	}
	return nil
}

func runShare(ctx context.Context, client *voiceclient.Client, args []string) error {
	fs := flag.NewFlagSet("share", flag.ExitOnError)
	id := fs.Uint64("id", 0, "snippet id")
	maxPlays := fs.Int("max-plays", 0, "maximum plays (server default when 0)")
	days := fs.Int("days", 0, "days until expiry (server default when 0)")
	accessKey := fs.String("access-key", "", "optional access key")
	_ = fs.Parse(args)
	if *id == 0 {
		return errors.New("-id is required")
	}

	var opts voiceclient.ShareOptions
	if *maxPlays > 0 {
		opts.MaxPlays = maxPlays
	}
	if *days > 0 {
		opts.ExpiryDays = days
	}
	if *accessKey != "" {
		opts.AccessKey = accessKey
	}

	link, err := client.CreateShare(ctx, *id, opts)
	if err != nil {
		return err
	}
	fmt.Printf("%s\nexpires %s, %d plays\n", link.URL, link.ExpiresAt.Local().Format(time.RFC1123), link.MaxPlays)
	return nil
}

func runFetch(ctx context.Context, client *voiceclient.Client, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	link := fs.String("link", "", "share URL or token")
	out := fs.String("out", "", "output file")
	accessKey := fs.String("key", "", "access key when the link requires one")
	decryptKey := fs.String("decrypt-key", "", "hex AES-256-GCM key for encrypted snippets")
	_ = fs.Parse(args)
	if *link == "" || *out == "" {
		return errors.New("-link and -out are required")
	}

	var key []byte
	if *decryptKey != "" {
		var err error
		if key, err = hex.DecodeString(strings.TrimSpace(*decryptKey)); err != nil {
			return fmt.Errorf("invalid -decrypt-key: %w", err)
		}
	}

	shared, data, err := client.Fetch(ctx, voiceclient.ShareIDFromURL(*link), *accessKey, key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("saved %q to %s, %d plays remaining\n", shared.Snippet.Title, *out, shared.PlaysRemaining)
	if shared.Snippet.IsEncrypted && key == nil {
		fmt.Fprintln(os.Stderr, "note: audio is encrypted, pass -decrypt-key to decrypt")
	}
	return nil
}
