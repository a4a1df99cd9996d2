package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"gorm.io/gorm"
)

// MembershipService drives the lifecycle of TeamMember rows: join
// requests, invitations, approvals and removals. Every transition and the
// notifications it emits or retracts share one transaction.
type MembershipService struct {
	db       *gorm.DB
	notifier *Notifier
	log      *logrus.Entry
}

func NewMembershipService(db *gorm.DB, notifier *Notifier, log *logrus.Entry) *MembershipService {
	return &MembershipService{
		db:       db,
		notifier: notifier,
		log:      log,
	}
}

func findTeam(tx *gorm.DB, teamID uint) (*models.Team, error) {
	var team models.Team
	if err := tx.First(&team, teamID).Error; err != nil {
		return nil, lookupErr(err, "team not found")
	}
	return &team, nil
}

// findMembership returns nil without error when the pair has no row
func findMembership(tx *gorm.DB, teamID, userID uint) (*models.TeamMember, error) {
	var member models.TeamMember
	err := tx.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// createMembership inserts a fresh row. A concurrent insert of the same
// pair loses on the unique index and surfaces as a conflict.
func createMembership(tx *gorm.DB, member *models.TeamMember) error {
	if err := tx.Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return conflict("membership for this user already exists")
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func setMembership(tx *gorm.DB, member *models.TeamMember, status models.MemberStatus, message *string) error {
	updates := map[string]interface{}{"status": status}
	if message != nil {
		updates["message"] = *message
	}
	if err := tx.Model(member).Updates(updates).Error; err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	member.Status = status
	if message != nil {
		member.Message = *message
	}
	return nil
}

func requireCreator(team *models.Team, actor *models.User, msg string) error {
	if team.CreatorID != actor.ID {
		return forbidden(msg)
	}
	return nil
}

// RequestJoin files a join request of actor for the team. A previously
// rejected row is reused.
func (s *MembershipService) RequestJoin(ctx context.Context, actor *models.User, teamID uint, message string) (*models.TeamMember, error) {
	var member *models.TeamMember
	err := transition(ctx, s.db, s.notifier, func(tx *gorm.DB, em *Emission) error {
		team, err := findTeam(tx, teamID)
		if err != nil {
			return err
		}
		if team.CreatorID == actor.ID {
			return conflict("the creator is already in the team")
		}

		existing, err := findMembership(tx, team.ID, actor.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			switch existing.Status {
			case models.MemberApproved:
				return conflict("you are already a member of this team")
			case models.MemberPending:
				return conflict("join request already sent")
			case models.MemberInvited:
				return conflict("you have been invited, accept the invitation instead")
			}
			if err := setMembership(tx, existing, models.MemberPending, &message); err != nil {
				return err
			}
			member = existing
		} else {
			member = &models.TeamMember{
				TeamID:  team.ID,
				UserID:  actor.ID,
				Status:  models.MemberPending,
				Message: message,
			}
			if err := createMembership(tx, member); err != nil {
				return err
			}
		}

		return em.Emit(team.CreatorID, models.NotifyTeamRequest,
			Refs{TeamID: &team.ID, TeamMemberID: &member.ID},
			fmt.Sprintf("User %s asked to join team '%s'", actor.Username, team.Title))
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"team_id": teamID, "user_id": actor.ID}).Info("join request sent")
	return member, nil
}

// Invite lets the team creator invite userID. A previously rejected row is
// reused.
func (s *MembershipService) Invite(ctx context.Context, actor *models.User, teamID, userID uint, message string) (*models.TeamMember, error) {
	var member *models.TeamMember
	err := transition(ctx, s.db, s.notifier, func(tx *gorm.DB, em *Emission) error {
		team, err := findTeam(tx, teamID)
		if err != nil {
			return err
		}
		if err := requireCreator(team, actor, "only the team creator can invite members"); err != nil {
			return err
		}

		var target models.User
		if err := tx.First(&target, userID).Error; err != nil {
			return lookupErr(err, "user not found")
		}
		if target.ID == team.CreatorID {
			return validation("the team creator cannot be invited")
		}

		existing, err := findMembership(tx, team.ID, target.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			switch existing.Status {
			case models.MemberApproved:
				return conflict("user is already a member of this team")
			case models.MemberPending:
				return conflict("user has already asked to join this team")
			case models.MemberInvited:
				return conflict("user is already invited to this team")
			}
			if err := setMembership(tx, existing, models.MemberInvited, &message); err != nil {
				return err
			}
			member = existing
		} else {
			member = &models.TeamMember{
				TeamID:  team.ID,
				UserID:  target.ID,
				Status:  models.MemberInvited,
				Message: message,
			}
			if err := createMembership(tx, member); err != nil {
				return err
			}
		}

		return em.Emit(target.ID, models.NotifyTeamInvitation,
			Refs{TeamID: &team.ID, TeamMemberID: &member.ID},
			fmt.Sprintf("You have been invited to team '%s'", team.Title))
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"team_id": teamID, "user_id": userID}).Info("invitation sent")
	return member, nil
}

// ownMembership loads a row that belongs to actor and checks its status
func ownMembership(tx *gorm.DB, actor *models.User, memberID uint, want models.MemberStatus, missing string) (*models.TeamMember, error) {
	var member models.TeamMember
	err := tx.Preload("Team").Where("id = ? AND user_id = ?", memberID, actor.ID).First(&member).Error
	if err != nil {
		return nil, lookupErr(err, missing)
	}
	if member.Status != want {
		return nil, statusConflict(member.Status)
	}
	return &member, nil
}

// statusConflict describes why a row in the given state cannot take the
// requested transition
func statusConflict(current models.MemberStatus) error {
	switch current {
	case models.MemberApproved:
		return conflict("membership is already approved")
	case models.MemberRejected:
		return conflict("membership was already rejected")
	case models.MemberInvited:
		return conflict("membership is an open invitation")
	case models.MemberPending:
		return conflict("membership is a pending request")
	}
	return conflict(fmt.Sprintf("membership is in state %s", current))
}

// AcceptInvitation turns actor's invitation into an approved membership
func (s *MembershipService) AcceptInvitation(ctx context.Context, actor *models.User, memberID uint) (*models.TeamMember, error) {
	return s.answerInvitation(ctx, actor, memberID, models.MemberApproved)
}

// RejectInvitation declines actor's invitation
func (s *MembershipService) RejectInvitation(ctx context.Context, actor *models.User, memberID uint) (*models.TeamMember, error) {
	return s.answerInvitation(ctx, actor, memberID, models.MemberRejected)
}

func (s *MembershipService) answerInvitation(ctx context.Context, actor *models.User, memberID uint, to models.MemberStatus) (*models.TeamMember, error) {
	var member *models.TeamMember
	err := transition(ctx, s.db, s.notifier, func(tx *gorm.DB, em *Emission) error {
		var err error
		member, err = ownMembership(tx, actor, memberID, models.MemberInvited, "invitation not found")
		if err != nil {
			return err
		}
		if err := setMembership(tx, member, to, nil); err != nil {
			return err
		}
		if _, err := em.Retract(actor.ID, models.NotifyTeamInvitation, member.TeamID, nil); err != nil {
			return err
		}

		kind := models.NotifyTeamInvitationAccepted
		msg := fmt.Sprintf("User %s accepted the invitation to team '%s'", actor.Username, member.Team.Title)
		if to == models.MemberRejected {
			kind = models.NotifyTeamInvitationRejected
			msg = fmt.Sprintf("User %s declined the invitation to team '%s'", actor.Username, member.Team.Title)
		}
		return em.Emit(member.Team.CreatorID, kind,
			Refs{TeamID: &member.TeamID, TeamMemberID: &member.ID}, msg)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"member_id": memberID, "status": to}).Info("invitation answered")
	return member, nil
}

// CancelRequest withdraws actor's pending join request. Notifications
// pointing at the row go away with it.
func (s *MembershipService) CancelRequest(ctx context.Context, actor *models.User, memberID uint) error {
	return transition(ctx, s.db, s.notifier, func(tx *gorm.DB, em *Emission) error {
		member, err := ownMembership(tx, actor, memberID, models.MemberPending, "request not found")
		if err != nil {
			return err
		}
		if err := tx.Delete(member).Error; err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		return nil
	})
}

// teamMembership loads a row of teamID after checking actor owns the team
func teamMembership(tx *gorm.DB, actor *models.User, teamID, memberID uint, deny string) (*models.Team, *models.TeamMember, error) {
	team, err := findTeam(tx, teamID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireCreator(team, actor, deny); err != nil {
		return nil, nil, err
	}
	var member models.TeamMember
	if err := tx.Where("id = ? AND team_id = ?", memberID, team.ID).First(&member).Error; err != nil {
		return nil, nil, lookupErr(err, "member not found")
	}
	return team, &member, nil
}

// resolveRequest moves a pending request to approved or rejected, swapping
// the creator's TEAM_REQUEST notification for the outcome sent to the user
func resolveRequest(em *Emission, tx *gorm.DB, team *models.Team, member *models.TeamMember, to models.MemberStatus) error {
	if err := setMembership(tx, member, to, nil); err != nil {
		return err
	}
	if _, err := em.Retract(team.CreatorID, models.NotifyTeamRequest, team.ID, &member.ID); err != nil {
		return err
	}

	kind := models.NotifyTeamRequestApproved
	msg := fmt.Sprintf("Your request to join team '%s' was approved", team.Title)
	if to == models.MemberRejected {
		kind = models.NotifyTeamRequestRejected
		msg = fmt.Sprintf("Your request to join team '%s' was rejected", team.Title)
	}
	return em.Emit(member.UserID, kind, Refs{TeamID: &team.ID, TeamMemberID: &member.ID}, msg)
}

// Approve accepts a pending join request
func (s *MembershipService) Approve(ctx context.Context, actor *models.User, teamID, memberID uint) (*models.TeamMember, error) {
	return s.decide(ctx, actor, teamID, memberID, models.MemberApproved)
}

// Reject declines a pending join request
func (s *MembershipService) Reject(ctx context.Context, actor *models.User, teamID, memberID uint) (*models.TeamMember, error) {
	return s.decide(ctx, actor, teamID, memberID, models.MemberRejected)
}

func (s *MembershipService) decide(ctx context.Context, actor *models.User, teamID, memberID uint, to models.MemberStatus) (*models.TeamMember, error) {
	var member *models.TeamMember
	err := transition(ctx, s.db, s.notifier, func(tx *gorm.DB, em *Emission) error {
		team, m, err := teamMembership(tx, actor, teamID, memberID, "only the team creator can review requests")
		if err != nil {
			return err
		}
		if m.Status != models.MemberPending {
			return statusConflict(m.Status)
		}
		member = m
		return resolveRequest(em, tx, team, m, to)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"team_id": teamID, "member_id": memberID, "status": to}).Info("join request reviewed")
	return member, nil
}

// UpdateMemberStatus sets any status on a row of the team. Moving a
// pending request to approved or rejected behaves like Approve/Reject.
func (s *MembershipService) UpdateMemberStatus(ctx context.Context, actor *models.User, teamID, memberID uint, status models.MemberStatus) (*models.TeamMember, error) {
	if !status.Valid() {
		return nil, validation(fmt.Sprintf("unknown member status %q", status))
	}
	var member *models.TeamMember
	err := transition(ctx, s.db, s.notifier, func(tx *gorm.DB, em *Emission) error {
		team, m, err := teamMembership(tx, actor, teamID, memberID, "only the team creator can change member status")
		if err != nil {
			return err
		}
		if m.UserID == team.CreatorID {
			return validation("the team creator's membership cannot be changed")
		}
		member = m

		if m.Status == models.MemberPending && (status == models.MemberApproved || status == models.MemberRejected) {
			return resolveRequest(em, tx, team, m, status)
		}
		return setMembership(tx, m, status, nil)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember deletes userID's row from the team, whatever its status
func (s *MembershipService) RemoveMember(ctx context.Context, actor *models.User, teamID, userID uint) error {
	err := transition(ctx, s.db, s.notifier, func(tx *gorm.DB, em *Emission) error {
		team, err := findTeam(tx, teamID)
		if err != nil {
			return err
		}
		if err := requireCreator(team, actor, "only the team creator can remove members"); err != nil {
			return err
		}
		if userID == team.CreatorID {
			return validation("the team creator cannot be removed")
		}
		member, err := findMembership(tx, team.ID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return notFound("user is not a member of this team")
		}
		if err := tx.Delete(member).Error; err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"team_id": teamID, "user_id": userID}).Info("member removed")
	return nil
}

// ListRequests returns the pending requests of a team to its creator
func (s *MembershipService) ListRequests(ctx context.Context, actor *models.User, teamID uint) ([]models.TeamMember, error) {
	db := s.db.WithContext(ctx)
	team, err := findTeam(db, teamID)
	if err != nil {
		return nil, err
	}
	if err := requireCreator(team, actor, "only the team creator can see requests"); err != nil {
		return nil, err
	}
	var members []models.TeamMember
	err = db.Preload("User").Preload("Team").
		Where("team_id = ? AND status = ?", team.ID, models.MemberPending).
		Order("created_at, id").
		Find(&members).Error
	return members, err
}

// ListMembers returns every row of a team, whatever its status
func (s *MembershipService) ListMembers(ctx context.Context, teamID uint) ([]models.TeamMember, error) {
	db := s.db.WithContext(ctx)
	if _, err := findTeam(db, teamID); err != nil {
		return nil, err
	}
	var members []models.TeamMember
	err := db.Preload("User").Preload("Team").
		Where("team_id = ?", teamID).
		Order("created_at, id").
		Find(&members).Error
	return members, err
}

// MyRequests lists actor's pending join requests
func (s *MembershipService) MyRequests(ctx context.Context, actor *models.User) ([]models.TeamMember, error) {
	return s.ownRows(ctx, actor, models.MemberPending)
}

// MyInvitations lists the invitations actor has not answered yet
func (s *MembershipService) MyInvitations(ctx context.Context, actor *models.User) ([]models.TeamMember, error) {
	return s.ownRows(ctx, actor, models.MemberInvited)
}

func (s *MembershipService) ownRows(ctx context.Context, actor *models.User, status models.MemberStatus) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Team").Preload("Team.Creator").
		Where("user_id = ? AND status = ?", actor.ID, status).
		Order("created_at DESC, id DESC").
		Find(&members).Error
	return members, err
}
