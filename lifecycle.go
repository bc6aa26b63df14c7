package members

// Lifecycle bundles one handler per member transition, all wired from a
// shared Config and repository manager. It is a convenience for hosts that
// want the whole surface at once; callers needing finer control construct
// handlers directly.
type Lifecycle struct {
	Codec *TokenCodec

	Register             *RegisterMemberHandler
	Invite               *InviteMemberHandler
	Join                 *JoinFromInviteHandler
	ConfirmEmail         *ConfirmEmailHandler
	RequestPasswordReset *RequestPasswordResetHandler
	ResetPassword        *ResetPasswordHandler
	RequestEmailChange   *RequestEmailChangeHandler
	ApplyEmailChange     *ApplyEmailChangeHandler
	ChangePassword       *ChangePasswordHandler
	SubmitPrimaryInfo    *SubmitPrimaryInfoHandler
	ConfirmPhone         *ConfirmPhoneHandler
	SubmitProfile        *SubmitProfileHandler
	RecordModuleProgress *RecordModuleProgressHandler
	SetSavingsWindow     *SetSavingsWindowHandler
	RecordBalance        *RecordBalanceHandler
	Archive              *ArchiveMemberHandler
	Login                *LoginHandler
}

// NewLifecycle builds every handler from cfg, sharing a single token codec.
func NewLifecycle(cfg Config, repo RepositoryManager) *Lifecycle {
	codec := NewTokenCodec([]byte(cfg.GetSigningKey()), cfg.GetIssuer(), nil)

	return &Lifecycle{
		Codec: codec,
		Register: NewRegisterMemberHandler(repo, codec).
			WithTokenTTL(cfg.GetConfirmTokenTTL()).
			WithTotalModules(cfg.GetTotalModules()),
		Invite: NewInviteMemberHandler(repo, codec).
			WithTokenTTL(cfg.GetConfirmTokenTTL()).
			WithTotalModules(cfg.GetTotalModules()),
		Join: NewJoinFromInviteHandler(repo, codec).
			WithTokenTTL(cfg.GetConfirmTokenTTL()),
		ConfirmEmail: NewConfirmEmailHandler(repo, codec),
		RequestPasswordReset: NewRequestPasswordResetHandler(repo, codec).
			WithTokenTTL(cfg.GetResetTokenTTL()),
		ResetPassword: NewResetPasswordHandler(repo, codec),
		RequestEmailChange: NewRequestEmailChangeHandler(repo, codec).
			WithTokenTTL(cfg.GetChangeEmailTokenTTL()),
		ApplyEmailChange: NewApplyEmailChangeHandler(repo, codec),
		ChangePassword:   NewChangePasswordHandler(repo),
		SubmitPrimaryInfo: NewSubmitPrimaryInfoHandler(repo).
			WithPhoneRegion(cfg.GetPhoneRegion()),
		ConfirmPhone:         NewConfirmPhoneHandler(repo),
		SubmitProfile:        NewSubmitProfileHandler(repo),
		RecordModuleProgress: NewRecordModuleProgressHandler(repo),
		SetSavingsWindow:     NewSetSavingsWindowHandler(repo),
		RecordBalance:        NewRecordBalanceHandler(repo),
		Archive:              NewArchiveMemberHandler(repo),
		Login:                NewLoginHandler(repo),
	}
}

// WithMailer fans the mailer out to every handler that dispatches email.
func (l *Lifecycle) WithMailer(m Mailer) *Lifecycle {
	l.Register.WithMailer(m)
	l.Invite.WithMailer(m)
	l.Join.WithMailer(m)
	l.RequestPasswordReset.WithMailer(m)
	l.RequestEmailChange.WithMailer(m)
	return l
}

// WithSMSSender sets the sender used for phone verification codes.
func (l *Lifecycle) WithSMSSender(s SMSSender) *Lifecycle {
	l.SubmitPrimaryInfo.WithSMSSender(s)
	return l
}

// WithUploadSigner sets the signer used for certificate uploads.
func (l *Lifecycle) WithUploadSigner(s UploadSigner) *Lifecycle {
	l.RecordModuleProgress.WithUploadSigner(s)
	return l
}

// WithActivitySink fans the sink out to every handler that emits events.
func (l *Lifecycle) WithActivitySink(sink ActivitySink) *Lifecycle {
	l.Register.WithActivitySink(sink)
	l.Invite.WithActivitySink(sink)
	l.Join.WithActivitySink(sink)
	l.ConfirmEmail.WithActivitySink(sink)
	l.RequestPasswordReset.WithActivitySink(sink)
	l.ResetPassword.WithActivitySink(sink)
	l.RequestEmailChange.WithActivitySink(sink)
	l.ApplyEmailChange.WithActivitySink(sink)
	l.ChangePassword.WithActivitySink(sink)
	l.SubmitPrimaryInfo.WithActivitySink(sink)
	l.ConfirmPhone.WithActivitySink(sink)
	l.SubmitProfile.WithActivitySink(sink)
	l.RecordModuleProgress.WithActivitySink(sink)
	l.SetSavingsWindow.WithActivitySink(sink)
	l.RecordBalance.WithActivitySink(sink)
	l.Archive.WithActivitySink(sink)
	return l
}

// WithLogger fans the logger out to the codec and every handler.
func (l *Lifecycle) WithLogger(logger Logger) *Lifecycle {
	l.Codec.WithLogger(logger)
	l.Register.WithLogger(logger)
	l.Invite.WithLogger(logger)
	l.Join.WithLogger(logger)
	l.ConfirmEmail.WithLogger(logger)
	l.RequestPasswordReset.WithLogger(logger)
	l.ResetPassword.WithLogger(logger)
	l.RequestEmailChange.WithLogger(logger)
	l.ApplyEmailChange.WithLogger(logger)
	l.ChangePassword.WithLogger(logger)
	l.SubmitPrimaryInfo.WithLogger(logger)
	l.ConfirmPhone.WithLogger(logger)
	l.SubmitProfile.WithLogger(logger)
	l.RecordModuleProgress.WithLogger(logger)
	l.SetSavingsWindow.WithLogger(logger)
	l.RecordBalance.WithLogger(logger)
	l.Archive.WithLogger(logger)
	l.Login.WithLogger(logger)
	return l
}
