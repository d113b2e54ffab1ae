package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/uniconnect/backend/internal/dto"
)

var profileCmd = &cobra.Command{
	Use:               "profile",
	Short:             "View and update your profile",
	PersistentPreRunE: requireToken,
}

var getProfileCmd = &cobra.Command{
	Use:   "get",
	Short: "Show your current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getProfile()
	},
}

var updateProfileCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	Long: `Update one or more profile fields. Only flags that are set are sent.

Example:
  uniconnect profile update --headline "CS @ MIT" --location Boston`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.UpdateProfileRequest
		changed := false
		for flag, field := range map[string]**string{
			"name":      &req.Name,
			"username":  &req.Username,
			"institute": &req.Institute,
			"headline":  &req.Headline,
			"location":  &req.Location,
		} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				*field = &v
				changed = true
			}
		}
		if !changed {
			return fmt.Errorf("nothing to update")
		}
		return updateProfile(&req)
	},
}

func init() {
	for _, name := range []string{"name", "username", "institute", "headline", "location"} {
		updateProfileCmd.Flags().String(name, "", "New "+name)
	}
	profileCmd.AddCommand(getProfileCmd)
	profileCmd.AddCommand(updateProfileCmd)
}

func getProfile() error {
	var profile dto.UserResponse
	printed, err := decodeAPI(http.MethodGet, "/api/auth/me", nil, &profile)
	if err != nil || printed {
		return err
	}
	printProfile(&profile)
	return nil
}

func updateProfile(req *dto.UpdateProfileRequest) error {
	var profile dto.UserResponse
	printed, err := decodeAPI(http.MethodPut, "/api/dashboard/user/profile", req, &profile)
	if err != nil || printed {
		return err
	}
	fmt.Printf("✓ Profile updated\n")
	printProfile(&profile)
	return nil
}

func printProfile(p *dto.UserResponse) {
	fmt.Printf("\n📋 Profile Information\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("Name:      %s\n", p.Name)
	fmt.Printf("Username:  %s\n", p.Username)
	fmt.Printf("Email:     %s\n", p.Email)
	fmt.Printf("Institute: %s\n", p.Institute)
	if p.Headline != "" {
		fmt.Printf("Headline:  %s\n", p.Headline)
	}
	if p.Location != "" {
		fmt.Printf("Location:  %s\n", p.Location)
	}
	status := "✗ Unverified"
	if p.IsVerified {
		status = "✓ Verified"
	}
	fmt.Printf("Status:    %s (%d points)\n\n", status, p.Points)
}
