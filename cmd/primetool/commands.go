package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	magma "github.com/lavabit/magma-sub003"
)

// passwordEnv names the variable the password is read from, so it never
// appears in argv.
const passwordEnv = "MAGMA_PASSWORD"

func (a *app) keygenCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an org or user key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var k magma.Kind
			switch kind {
			case "org":
				k = magma.KindOrgKey
			case "user":
				k = magma.KindUserKey
			default:
				return fmt.Errorf("unknown key kind %q (want org or user)", kind)
			}
			key, err := a.engine.GenerateKey(k)
			if err != nil {
				return err
			}
			defer key.Destroy()
			return a.writeObject(key)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "user", "key kind: org or user")
	return cmd
}

func (a *app) signetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signet <key>",
		Short: "Print the org signet or signing request for a key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.readKey(arg(args))
			if err != nil {
				return err
			}
			defer key.Destroy()
			s, err := a.engine.Signet(key)
			if err != nil {
				return err
			}
			return a.writeObject(s)
		},
	}
}

func (a *app) requestCmd() *cobra.Command {
	var predecessor string
	cmd := &cobra.Command{
		Use:   "request <user-key>",
		Short: "Build a signing request, optionally chained to a predecessor key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.readKey(arg(args))
			if err != nil {
				return err
			}
			defer key.Destroy()

			var prev *magma.Key
			if predecessor != "" {
				if prev, err = a.readKey(predecessor); err != nil {
					return err
				}
				defer prev.Destroy()
			}

			s, err := a.engine.Request(key, prev)
			if err != nil {
				return err
			}
			return a.writeObject(s)
		},
	}
	cmd.Flags().StringVar(&predecessor, "predecessor", "", "user key being replaced")
	return cmd
}

func (a *app) signCmd() *cobra.Command {
	var orgPath string
	cmd := &cobra.Command{
		Use:   "sign <request>",
		Short: "Issue a user signet from a signing request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := a.readSignet(arg(args))
			if err != nil {
				return err
			}
			org, err := a.readKey(orgPath)
			if err != nil {
				return err
			}
			defer org.Destroy()

			s, err := a.engine.SignRequest(request, org)
			if err != nil {
				return err
			}
			return a.writeObject(s)
		},
	}
	cmd.Flags().StringVar(&orgPath, "org", "", "org key that signs the request")
	cmd.MarkFlagRequired("org")
	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	var issuerPath, predecessorPath string
	cmd := &cobra.Command{
		Use:   "verify <signet>",
		Short: "Check the signatures on a signet or signing request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.readSignet(arg(args))
			if err != nil {
				return err
			}

			var issuer, predecessor magma.Object
			if issuerPath != "" {
				if issuer, err = a.readObject(issuerPath); err != nil {
					return err
				}
			}
			if predecessorPath != "" {
				if predecessor, err = a.readObject(predecessorPath); err != nil {
					return err
				}
			}

			if err := a.engine.VerifySignet(s, issuer, predecessor); err != nil {
				return err
			}
			fmt.Fprintf(a.cfg.Stdout, "ok %s\n", s.Kind())
			return nil
		},
	}
	cmd.Flags().StringVar(&issuerPath, "issuer", "", "org key or org signet a user signet chains to")
	cmd.Flags().StringVar(&predecessorPath, "predecessor", "", "key or signet that holds the custody signature")
	return cmd
}

func (a *app) fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <signet>",
		Short: "Print the fingerprint of a signet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.readSignet(arg(args))
			if err != nil {
				return err
			}
			fp, err := s.Fingerprint()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.cfg.Stdout, fp)
			return nil
		},
	}
}

func (a *app) sealCmd() *cobra.Command {
	var fromPath string
	cmd := &cobra.Command{
		Use:   "seal <recipient-signet>",
		Short: "Encrypt stdin for a recipient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient, err := a.readSignet(args[0])
			if err != nil {
				return err
			}
			var author *magma.Key
			if fromPath != "" {
				if author, err = a.readKey(fromPath); err != nil {
					return err
				}
				defer author.Destroy()
			}

			body, err := io.ReadAll(a.cfg.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			msg, err := a.engine.EncryptMessage(author, recipient, body)
			if err != nil {
				return err
			}
			return a.writeObject(msg)
		},
	}
	cmd.Flags().StringVar(&fromPath, "from", "", "author user key; omit for an anonymous message")
	return cmd
}

func (a *app) openCmd() *cobra.Command {
	var keyPath, fromPath string
	cmd := &cobra.Command{
		Use:   "open <message>",
		Short: "Decrypt a message to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := a.readObject(arg(args))
			if err != nil {
				return err
			}
			msg, ok := obj.(*magma.Message)
			if !ok {
				return fmt.Errorf("%w: expected a message, got %v", magma.ErrInvalidArgument, obj.Kind())
			}
			key, err := a.readKey(keyPath)
			if err != nil {
				return err
			}
			defer key.Destroy()

			var author *magma.Signet
			if fromPath != "" {
				if author, err = a.readSignet(fromPath); err != nil {
					return err
				}
			}

			opened, err := a.engine.DecryptMessage(msg, key, author)
			if err != nil {
				return err
			}
			if opened.Signed && !opened.Verified {
				fmt.Fprintln(a.cfg.Stderr, "warning: message is signed but no author signet was given")
			}
			_, err = a.cfg.Stdout.Write(opened.Body)
			return err
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", "", "recipient or author user key")
	cmd.Flags().StringVar(&fromPath, "from", "", "author signet to verify signatures against")
	cmd.MarkFlagRequired("key")
	return cmd
}

// realmFlags are the inputs needed to rebuild a realm key.
type realmFlags struct {
	username string
	salt     string
	realm    string
	shard    string
}

func (f *realmFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.username, "username", "", "account username")
	cmd.Flags().StringVar(&f.salt, "salt", "", "account salt, hex")
	cmd.Flags().StringVar(&f.realm, "realm", "mail", "realm label")
	cmd.Flags().StringVar(&f.shard, "shard", "", "server-held realm shard, hex")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("salt")
	cmd.MarkFlagRequired("shard")
}

func (a *app) realmKey(ctx context.Context, f *realmFlags) (*magma.RealmKey, error) {
	salt, err := hex.DecodeString(f.salt)
	if err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	shard, err := hex.DecodeString(f.shard)
	if err != nil {
		return nil, fmt.Errorf("shard: %w", err)
	}
	password, err := readPassword()
	if err != nil {
		return nil, err
	}

	creds, err := a.engine.Register(ctx, f.username, password, salt)
	if err != nil {
		return nil, err
	}
	defer creds.Destroy()
	return a.engine.RealmKey(creds.MasterKey, f.realm, shard)
}

func (a *app) protectCmd() *cobra.Command {
	var f realmFlags
	cmd := &cobra.Command{
		Use:   "protect <key>",
		Short: "Encrypt a key under a password-derived realm key (password from " + passwordEnv + ")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.readKey(arg(args))
			if err != nil {
				return err
			}
			defer key.Destroy()

			rk, err := a.realmKey(cmd.Context(), &f)
			if err != nil {
				return err
			}
			defer rk.Destroy()

			enc, err := a.engine.EncryptKey(rk.Key, key)
			if err != nil {
				return err
			}
			return a.writeObject(enc)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) unprotectCmd() *cobra.Command {
	var f realmFlags
	cmd := &cobra.Command{
		Use:   "unprotect <encrypted-key>",
		Short: "Decrypt a key sealed by protect (password from " + passwordEnv + ")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := a.readObject(arg(args))
			if err != nil {
				return err
			}
			enc, ok := obj.(*magma.EncryptedKey)
			if !ok {
				return fmt.Errorf("%w: expected an encrypted key, got %v", magma.ErrInvalidArgument, obj.Kind())
			}

			rk, err := a.realmKey(cmd.Context(), &f)
			if err != nil {
				return err
			}
			defer rk.Destroy()

			key, err := a.engine.DecryptKey(rk.Key, enc)
			if err != nil {
				return err
			}
			defer key.Destroy()
			return a.writeObject(key)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) unpackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpack [file]",
		Short: "List the fields of any object",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(arg(args))
			if err != nil {
				return err
			}
			u, err := a.engine.Unpack(data)
			if err != nil {
				return err
			}
			fmt.Fprint(a.cfg.Stdout, u.String())
			return nil
		},
	}
}

func (a *app) armorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "armor [file]",
		Short: "Wrap a binary object in its armor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(arg(args))
			if err != nil {
				return err
			}
			out, err := a.engine.Armor(data)
			if err != nil {
				return err
			}
			_, err = a.cfg.Stdout.Write(out)
			return err
		},
	}
}

func (a *app) unarmorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unarmor [file]",
		Short: "Strip the armor from an object",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(arg(args))
			if err != nil {
				return err
			}
			out, err := a.engine.Unarmor(data)
			if err != nil {
				return err
			}
			_, err = a.cfg.Stdout.Write(out)
			return err
		},
	}
}

func (a *app) roundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rounds",
		Short: "Print the STACIE round count for the password in " + passwordEnv,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword()
			if err != nil {
				return err
			}
			rounds, err := a.engine.Rounds(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.cfg.Stdout, rounds)
			return nil
		},
	}
}

// derivation is the output of the derive command.
type derivation struct {
	Username          string `yaml:"username"`
	Salt              string `yaml:"salt"`
	Rounds            uint32 `yaml:"rounds"`
	VerificationToken string `yaml:"verification_token"`
	LoginToken        string `yaml:"login_token,omitempty"`
}

func (a *app) deriveCmd() *cobra.Command {
	var username, saltHex, nonceHex string
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive the stored STACIE values for an account (password from " + passwordEnv + ")",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword()
			if err != nil {
				return err
			}

			var salt []byte
			if saltHex == "" {
				salt, err = a.engine.NewSalt()
			} else {
				salt, err = hex.DecodeString(saltHex)
			}
			if err != nil {
				return fmt.Errorf("salt: %w", err)
			}

			creds, err := a.engine.Register(cmd.Context(), username, password, salt)
			if err != nil {
				return err
			}
			defer creds.Destroy()

			out := derivation{
				Username:          username,
				Salt:              hex.EncodeToString(salt),
				Rounds:            creds.Rounds,
				VerificationToken: hex.EncodeToString(creds.VerificationToken),
			}
			if nonceHex != "" {
				nonce, err := hex.DecodeString(nonceHex)
				if err != nil {
					return fmt.Errorf("nonce: %w", err)
				}
				token, err := a.engine.LoginToken(cmd.Context(), username, password, salt, nonce)
				if err != nil {
					return err
				}
				out.LoginToken = hex.EncodeToString(token)
			}

			enc := yaml.NewEncoder(a.cfg.Stdout)
			defer enc.Close()
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&saltHex, "salt", "", "account salt, hex; generated when empty")
	cmd.Flags().StringVar(&nonceHex, "nonce", "", "login nonce, hex; adds a login token to the output")
	cmd.MarkFlagRequired("username")
	return cmd
}

func readPassword() (string, error) {
	password := os.Getenv(passwordEnv)
	if password == "" {
		return "", fmt.Errorf("%s is not set", passwordEnv)
	}
	return password, nil
}

// arg returns the optional positional argument, or "" for stdin.
func arg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// readInput reads path, or stdin when path is empty or "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(a.cfg.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	return os.ReadFile(path)
}

func (a *app) readObject(path string) (magma.Object, error) {
	data, err := a.readInput(path)
	if err != nil {
		return nil, err
	}
	return a.engine.Parse(data, magma.DetectFormat(data))
}

func (a *app) readKey(path string) (*magma.Key, error) {
	obj, err := a.readObject(path)
	if err != nil {
		return nil, err
	}
	key, ok := obj.(*magma.Key)
	if !ok {
		return nil, fmt.Errorf("%w: expected a key, got %v", magma.ErrInvalidArgument, obj.Kind())
	}
	return key, nil
}

func (a *app) readSignet(path string) (*magma.Signet, error) {
	obj, err := a.readObject(path)
	if err != nil {
		return nil, err
	}
	s, ok := obj.(*magma.Signet)
	if !ok {
		return nil, fmt.Errorf("%w: expected a signet, got %v", magma.ErrInvalidArgument, obj.Kind())
	}
	return s, nil
}

func (a *app) writeObject(obj magma.Object) error {
	format := magma.Armored
	if a.binary {
		format = magma.Binary
	}
	data, err := a.engine.Encode(obj, format)
	if err != nil {
		return err
	}
	_, err = a.cfg.Stdout.Write(data)
	return err
}
