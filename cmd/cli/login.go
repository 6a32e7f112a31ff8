package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to MedPal",
	Run: func(cmd *cobra.Command, args []string) {
		var email, password string
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("Email: ")
		scanner.Scan()
		email = strings.TrimSpace(scanner.Text())
		fmt.Print("Password: ")
		scanner.Scan()
		password = strings.TrimSpace(scanner.Text())

		loginReq := map[string]string{
			"email":    email,
			"password": password,
		}
		body, _ := json.Marshal(loginReq)

		resp, err := http.Post(apiURL()+"/auth/login", "application/json", bytes.NewBuffer(body))
		if err != nil {
			fmt.Printf("Error connecting to server: %v\n", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fmt.Println("Login failed. Check your credentials.")
			return
		}

		var loginResp struct {
			Token string `json:"token"`
			User  struct {
				Name string `json:"name"`
			} `json:"user"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
			fmt.Printf("Error reading response: %v\n", err)
			return
		}

		viper.Set("token", loginResp.Token)
		viper.Set("email", email)
		if err := viper.WriteConfig(); err != nil {
			fmt.Printf("Warning: failed to save credentials: %v\n", err)
		}

		fmt.Printf("Logged in as %s.\n", loginResp.User.Name)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
