package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"
)

// TunnelConfig describes a local port forwarded through an SSH bastion.
type TunnelConfig struct {
	SSHUser        string
	SSHHost        string
	SSHPort        string
	RemoteHost     string
	RemotePort     string
	LocalPort      string
	PrivateKeyPath string
	KnownHostsKey  string
}

var tunnelCfg TunnelConfig

var tunnelCmd = &cobra.Command{
	Use:   "tunnel",
	Short: "Forward a local port to the database through an SSH bastion",
	Long: `Opens an SSH tunnel so migrate and serve can reach a database that is only
reachable from a bastion host.`,
	Run: func(cmd *cobra.Command, args []string) {
		setLogging(logLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := StartSSHTunnel(ctx, tunnelCfg); err != nil {
			log.Fatal().Err(err).Msg("SSH tunnel failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(tunnelCmd)
	tunnelCmd.Flags().StringVar(&tunnelCfg.SSHUser, "ssh-user", "ec2-user", "bastion user")
	tunnelCmd.Flags().StringVar(&tunnelCfg.SSHHost, "ssh-host", "", "bastion host")
	tunnelCmd.Flags().StringVar(&tunnelCfg.SSHPort, "ssh-port", "22", "bastion port")
	tunnelCmd.Flags().StringVar(&tunnelCfg.RemoteHost, "remote-host", "", "database host as seen from the bastion")
	tunnelCmd.Flags().StringVar(&tunnelCfg.RemotePort, "remote-port", "5432", "database port")
	tunnelCmd.Flags().StringVar(&tunnelCfg.LocalPort, "local-port", "5432", "local port to listen on")
	tunnelCmd.Flags().StringVar(&tunnelCfg.PrivateKeyPath, "key", "", "path to the SSH private key")
	tunnelCmd.Flags().StringVar(&tunnelCfg.KnownHostsKey, "host-key", "",
		"bastion public key in authorized_keys format; the host key is not checked when empty")
	_ = tunnelCmd.MarkFlagRequired("ssh-host")
	_ = tunnelCmd.MarkFlagRequired("remote-host")
	_ = tunnelCmd.MarkFlagRequired("key")
}

// SSHClient creates a new SSH client
func SSHClient(config TunnelConfig) (*ssh.Client, error) {
	key, err := os.ReadFile(config.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key: %w", err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if config.KnownHostsKey != "" {
		hostKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(config.KnownHostsKey))
		if err != nil {
			return nil, fmt.Errorf("unable to parse host key: %w", err)
		}
		hostKeyCallback = ssh.FixedHostKey(hostKey)
	} else {
		log.Warn().Str("host", config.SSHHost).Msg("bastion host key is not verified")
	}

	sshConfig := &ssh.ClientConfig{
		User:            config.SSHUser,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         5 * time.Second,
	}

	return ssh.Dial("tcp", net.JoinHostPort(config.SSHHost, config.SSHPort), sshConfig)
}

// ForwardTraffic forwards every accepted local connection to the remote host until the
// listener is closed.
func ForwardTraffic(localListener net.Listener, client *ssh.Client, config TunnelConfig) {
	remote := net.JoinHostPort(config.RemoteHost, config.RemotePort)
	for {
		localConn, err := localListener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn().Err(err).Msg("Failed to accept local connection")
			continue
		}

		remoteConn, err := client.Dial("tcp", remote)
		if err != nil {
			log.Error().Err(err).Str("remote", remote).Msg("Failed to connect to remote host")
			localConn.Close()
			continue
		}

		go func() {
			defer localConn.Close()
			defer remoteConn.Close()

			go io.Copy(remoteConn, localConn)
			io.Copy(localConn, remoteConn)
		}()
	}
}

// StartSSHTunnel runs the tunnel until ctx is done.
func StartSSHTunnel(ctx context.Context, config TunnelConfig) error {
	client, err := SSHClient(config)
	if err != nil {
		return err
	}
	defer client.Close()

	localListener, err := net.Listen("tcp", net.JoinHostPort("localhost", config.LocalPort))
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		localListener.Close()
	}()

	log.Info().Msgf("SSH tunnel started on localhost:%s forwarding to %s:%s", config.LocalPort, config.RemoteHost, config.RemotePort)
	ForwardTraffic(localListener, client, config)
	return nil
}
